package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kozaktomas/photo-map/internal/constants"
	"github.com/kozaktomas/photo-map/internal/geo"
	"github.com/kozaktomas/photo-map/internal/tagger"
	"github.com/kozaktomas/photo-map/internal/thumbnail"
	"go.uber.org/zap"
)

// Locator reads the stored location of one image.
type Locator interface {
	ReadLocation(ctx context.Context, path string) (*geo.Point, error)
}

// GalleryDir resolves request paths against the gallery root.
type GalleryDir interface {
	Root() string
	Contains(path string) (string, bool)
}

// PhotosHandler serves per-photo lookups.
type PhotosHandler struct {
	gallery GalleryDir
	locator Locator
	logger  *zap.Logger
}

// NewPhotosHandler creates a new photos handler.
func NewPhotosHandler(dir GalleryDir, locator Locator, logger *zap.Logger) *PhotosHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotosHandler{gallery: dir, locator: locator, logger: logger}
}

// DMSResponse is the encoded form of a location.
type DMSResponse struct {
	Latitude     string `json:"latitude"`
	LatitudeRef  string `json:"latitude_ref"`
	Longitude    string `json:"longitude"`
	LongitudeRef string `json:"longitude_ref"`
}

// LocationResponse is the body of GET /photos/location.
type LocationResponse struct {
	Path     string       `json:"path"`
	Location *geo.Point   `json:"location"`
	DMS      *DMSResponse `json:"dms,omitempty"`
}

// resolve maps the path query parameter to an existing file inside the
// gallery. It writes the error response itself when it returns false.
func (h *PhotosHandler) resolve(w http.ResponseWriter, r *http.Request) (string, bool) {
	reqPath := r.URL.Query().Get("path")
	if reqPath == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return "", false
	}
	if !filepath.IsAbs(reqPath) {
		reqPath = filepath.Join(h.gallery.Root(), reqPath)
	}

	path, ok := h.gallery.Contains(reqPath)
	if !ok {
		respondError(w, http.StatusNotFound, "photo not found")
		return "", false
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		respondError(w, http.StatusNotFound, "photo not found")
		return "", false
	}
	return path, true
}

// File handles GET /photos/file?path= and streams the image itself.
func (h *PhotosHandler) File(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolve(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, path)
}

// Thumb handles GET /photos/thumb?path=&size= and returns a JPEG preview.
func (h *PhotosHandler) Thumb(w http.ResponseWriter, r *http.Request) {
	size := constants.DefaultThumbSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > constants.MaxThumbSize {
			respondError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}

	path, ok := h.resolve(w, r)
	if !ok {
		return
	}

	data, err := thumbnail.File(path, size)
	if err != nil {
		if errors.Is(err, thumbnail.ErrDecode) {
			respondError(w, http.StatusUnprocessableEntity, "image unreadable")
			return
		}
		h.logger.Error("rendering preview", zap.String("path", sanitizeForLog(path)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Location handles GET /photos/location?path=. Relative paths are resolved
// against the gallery root; paths outside the gallery are not found.
func (h *PhotosHandler) Location(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolve(w, r)
	if !ok {
		return
	}

	p, err := h.locator.ReadLocation(r.Context(), path)
	if err != nil {
		if errors.Is(err, tagger.ErrImageUnreadable) {
			respondError(w, http.StatusUnprocessableEntity, "image unreadable")
			return
		}
		h.logger.Error("reading location", zap.String("path", sanitizeForLog(path)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read location")
		return
	}

	resp := LocationResponse{Path: path, Location: p}
	if p != nil {
		lat, lon := geo.Encode(*p)
		resp.DMS = &DMSResponse{
			Latitude:     lat.String(),
			LatitudeRef:  string(lat.Ref),
			Longitude:    lon.String(),
			LongitudeRef: string(lon.Ref),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
