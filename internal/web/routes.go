package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/web/handlers"
	"github.com/kozaktomas/photo-map/internal/web/static"
)

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.Backend)
	mapHandler := handlers.NewMapHandler(s.deps.Source, s.deps.Clusterer, s.config.Map.Zoom, s.logger)
	photosHandler := handlers.NewPhotosHandler(s.deps.Gallery, s.deps.Locator, s.logger)
	captureHandler := handlers.NewCaptureHandler(s.deps.Capture, "", s.logger)
	scanHandler := handlers.NewScanHandler(s.deps.Source, s.deps.Locator, cluster.Options{
		Workers:     s.config.Scan.Workers,
		ReadTimeout: s.config.Scan.ReadTimeout,
		Logger:      s.logger.Named("scan"),
	}, s.config.Map.Zoom, handlers.NewJobManager(), s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)

		// Map
		r.Get("/map", mapHandler.Get)
		r.Get("/map/geojson", mapHandler.GeoJSON)

		// Background scans
		r.Post("/scans", scanHandler.Start)
		r.Get("/scans", scanHandler.List)
		r.Get("/scans/{jobId}", scanHandler.Status)
		r.Get("/scans/{jobId}/events", scanHandler.Events)
		r.Delete("/scans/{jobId}", scanHandler.Cancel)

		// Photos
		r.Get("/photos/location", photosHandler.Location)
		r.Get("/photos/file", photosHandler.File)
		r.Get("/photos/thumb", photosHandler.Thumb)

		// Capture
		r.Post("/capture", captureHandler.Capture)
	})

	// Browser map client
	s.router.Handle("/*", http.FileServer(static.GetFileSystem()))
}
