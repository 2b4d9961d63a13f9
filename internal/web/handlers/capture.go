package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kozaktomas/photo-map/internal/capture"
	"github.com/kozaktomas/photo-map/internal/constants"
	"github.com/kozaktomas/photo-map/internal/geo"
	"go.uber.org/zap"
)

// CaptureRunner runs the capture pipeline for one camera.
type CaptureRunner interface {
	Run(ctx context.Context, cam capture.Camera) (capture.Result, error)
}

// CaptureHandler accepts photos from a client camera.
type CaptureHandler struct {
	pipeline   CaptureRunner
	stagingDir string
	logger     *zap.Logger
}

// NewCaptureHandler creates a new capture handler. Uploads are staged under
// stagingDir, the system temp dir when empty.
func NewCaptureHandler(pipeline CaptureRunner, stagingDir string, logger *zap.Logger) *CaptureHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureHandler{pipeline: pipeline, stagingDir: stagingDir, logger: logger}
}

// CaptureResponse is the body of POST /capture.
type CaptureResponse struct {
	Path    string     `json:"path"`
	Tagged  bool       `json:"tagged"`
	Indexed bool       `json:"indexed"`
	Fix     *geo.Point `json:"fix"`
	Warning string     `json:"warning,omitempty"`
}

// parseFix reads the optional lat/lon form values. Both or neither must be set.
func parseFix(r *http.Request) (*geo.Point, error) {
	latStr := strings.TrimSpace(r.FormValue("lat"))
	lonStr := strings.TrimSpace(r.FormValue("lon"))
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errors.New("invalid lon")
	}

	p := geo.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return nil, errors.New("coordinates out of range")
	}
	return &p, nil
}

// Capture handles POST /capture with a multipart "file" and optional fix.
func (h *CaptureHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	fix, err := parseFix(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	cam := &capture.ReaderCamera{
		Reader:     file,
		Ext:        filepath.Ext(header.Filename),
		Fix:        fix,
		StagingDir: h.stagingDir,
	}

	res, err := h.pipeline.Run(r.Context(), cam)
	if res.Path == "" {
		if errors.Is(err, capture.ErrNoImage) {
			respondError(w, http.StatusBadRequest, "empty image")
			return
		}
		h.logger.Error("capture failed", zap.String("file", sanitizeForLog(header.Filename)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to store capture")
		return
	}

	resp := CaptureResponse{
		Path:    res.Path,
		Tagged:  res.Tagged,
		Indexed: res.Indexed,
		Fix:     res.Fix,
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	respondJSON(w, http.StatusCreated, resp)
}
