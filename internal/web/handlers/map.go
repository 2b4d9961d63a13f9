package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/gallery"
	"github.com/kozaktomas/photo-map/internal/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Clusterer groups photo paths into map clusters.
type Clusterer interface {
	Cluster(ctx context.Context, paths []string) (*cluster.Result, error)
}

// MapHandler scans the gallery on each request and renders the markers.
type MapHandler struct {
	gallery   gallery.Store
	clusterer Clusterer
	zoom      float64
	logger    *zap.Logger
}

// NewMapHandler creates a new map handler.
func NewMapHandler(store gallery.Store, clusterer Clusterer, zoom float64, logger *zap.Logger) *MapHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapHandler{gallery: store, clusterer: clusterer, zoom: zoom, logger: logger}
}

// MarkerResponse is one map marker.
type MarkerResponse struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Head     string   `json:"head"`
	Stack    string   `json:"stack,omitempty"`
	Overflow int      `json:"overflow"`
	Photos   []string `json:"photos"`
}

// SkipResponse is a photo that produced no marker.
type SkipResponse struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// MapResponse is the body of GET /map.
type MapResponse struct {
	ScanID  string           `json:"scan_id"`
	Focus   *geo.Point       `json:"focus"`
	Zoom    float64          `json:"zoom"`
	Markers []MarkerResponse `json:"markers"`
	Skipped []SkipResponse   `json:"skipped"`
}

// markerRenderer collects placements into a MapResponse.
type markerRenderer struct {
	resp MapResponse
}

func (m *markerRenderer) Render(ctx context.Context, placements []cluster.Placement, focus *geo.Point, zoom float64) error {
	m.resp.Focus = focus
	m.resp.Zoom = zoom
	m.resp.Markers = make([]MarkerResponse, 0, len(placements))
	for _, p := range placements {
		m.resp.Markers = append(m.resp.Markers, MarkerResponse{
			Lat:      p.Point.Lat,
			Lon:      p.Point.Lon,
			Head:     p.View.Head,
			Stack:    p.View.Stack,
			Overflow: p.View.Overflow,
			Photos:   p.Photos,
		})
	}
	return nil
}

// geoJSONRenderer collects placements into a FeatureCollection.
type geoJSONRenderer struct {
	fc *geojson.FeatureCollection
}

func (g *geoJSONRenderer) Render(ctx context.Context, placements []cluster.Placement, focus *geo.Point, zoom float64) error {
	g.fc = geojson.NewFeatureCollection()
	for i, p := range placements {
		f := geojson.NewFeature(orb.Point{p.Point.Lon, p.Point.Lat})
		f.Properties["head"] = p.View.Head
		f.Properties["stack"] = p.View.Stack
		f.Properties["overflow"] = p.View.Overflow
		f.Properties["count"] = p.View.Count
		f.Properties["photos"] = p.Photos
		f.Properties["focus"] = i == 0 && focus != nil
		f.Properties["zoom"] = zoom
		g.fc.Append(f)
	}
	g.fc.BBox = boundingBox(placements)
	return nil
}

// boundingBox returns [west, south, east, north] or nil when empty.
func boundingBox(placements []cluster.Placement) geojson.BBox {
	if len(placements) == 0 {
		return nil
	}
	points := make(orb.MultiPoint, 0, len(placements))
	for _, p := range placements {
		points = append(points, orb.Point{p.Point.Lon, p.Point.Lat})
	}
	return geojson.NewBBox(points.Bound())
}

func (h *MapHandler) scan(w http.ResponseWriter, r *http.Request) (*cluster.Result, bool) {
	paths, err := h.gallery.ListImagePaths(r.Context())
	if err != nil {
		h.logger.Error("listing gallery", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list gallery")
		return nil, false
	}

	res, err := h.clusterer.Cluster(r.Context(), paths)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			respondError(w, http.StatusServiceUnavailable, "scan cancelled")
			return nil, false
		}
		h.logger.Error("clustering gallery", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to scan gallery")
		return nil, false
	}
	return res, true
}

// Get handles GET /map.
func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := h.scan(w, r)
	if !ok {
		return
	}

	resp, err := newMapResponse(r.Context(), res, h.zoom)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render map")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// newMapResponse renders res into the marker list of a map response.
func newMapResponse(ctx context.Context, res *cluster.Result, zoom float64) (*MapResponse, error) {
	mr := &markerRenderer{}
	if err := cluster.Render(ctx, mr, res, zoom); err != nil {
		return nil, err
	}

	mr.resp.ScanID = res.ScanID
	mr.resp.Skipped = make([]SkipResponse, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		mr.resp.Skipped = append(mr.resp.Skipped, SkipResponse{Path: s.Path, Reason: s.Reason})
	}
	return &mr.resp, nil
}

// GeoJSON handles GET /map/geojson.
func (h *MapHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	res, ok := h.scan(w, r)
	if !ok {
		return
	}

	gr := &geoJSONRenderer{}
	if err := cluster.Render(r.Context(), gr, res, h.zoom); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render map")
		return
	}
	data, err := gr.fc.MarshalJSON()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode map")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
