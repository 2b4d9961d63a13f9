package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/gallery"
	"go.uber.org/zap"
)

// ScanHandler runs gallery scans as background jobs and streams their
// progress, for galleries too large to scan inside one request.
type ScanHandler struct {
	gallery    gallery.Store
	locator    cluster.Locator
	opts       cluster.Options
	zoom       float64
	jobManager *JobManager
	logger     *zap.Logger
}

// NewScanHandler creates a new scan handler. Each job gets its own clusterer
// built from opts, so progress is reported per job.
func NewScanHandler(store gallery.Store, locator cluster.Locator, opts cluster.Options, zoom float64, jm *JobManager, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{
		gallery:    store,
		locator:    locator,
		opts:       opts,
		zoom:       zoom,
		jobManager: jm,
		logger:     logger,
	}
}

// Start handles POST /scans.
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.CreateJob(uuid.New().String())

	// the request context ends when this handler returns
	ctx, cancel := context.WithCancel(context.Background())
	job.setCancel(cancel)
	go h.runScanJob(ctx, cancel, job)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(JobStatusPending),
	})
}

// List handles GET /scans.
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobManager.ListJobs()
	views := make([]ScanJobView, 0, len(jobs))
	for _, job := range jobs {
		v := job.View()
		v.Result = nil
		views = append(views, v)
	}
	respondJSON(w, http.StatusOK, views)
}

// Status handles GET /scans/{jobId}.
func (h *ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.View())
}

// Events streams job events via SSE
func (h *ScanHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*ScanJob).View()
		},
	)
}

// Cancel handles DELETE /scans/{jobId}.
func (h *ScanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.jobManager.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if !job.Cancel() {
		respondError(w, http.StatusConflict, "job already finished")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// runScanJob lists the gallery, clusters it and stores the rendered map.
func (h *ScanHandler) runScanJob(ctx context.Context, cancel context.CancelFunc, job *ScanJob) {
	defer cancel()
	logger := h.logger.With(zap.String("job_id", job.ID))

	if !job.start() {
		return
	}
	job.SendEvent(JobEvent{Type: "started", Message: "Scan started"})

	paths, err := h.gallery.ListImagePaths(ctx)
	if err != nil {
		h.failJob(ctx, job, "failed to list gallery", err)
		return
	}

	job.mu.Lock()
	job.Total = len(paths)
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "photos_counted", Data: map[string]int{"total": len(paths)}})

	opts := h.opts
	opts.OnProgress = func(info cluster.ProgressInfo) {
		job.mu.Lock()
		job.Processed = info.Current
		job.mu.Unlock()
		job.SendEvent(JobEvent{
			Type: "progress",
			Data: map[string]any{
				"current": info.Current,
				"total":   info.Total,
				"path":    info.Path,
			},
		})
	}

	res, err := cluster.New(h.locator, opts).Cluster(ctx, paths)
	if err != nil {
		h.failJob(ctx, job, "scan failed", err)
		return
	}

	resp, err := newMapResponse(ctx, res, h.zoom)
	if err != nil {
		h.failJob(ctx, job, "failed to render map", err)
		return
	}

	if job.finish(JobStatusCompleted, resp, "") {
		logger.Info("scan job completed", zap.Int("markers", len(resp.Markers)))
		job.SendEvent(JobEvent{Type: "completed", Data: job.View()})
	}
}

// failJob marks the job failed, unless it was cancelled, in which case the
// cancellation already ended it.
func (h *ScanHandler) failJob(ctx context.Context, job *ScanJob, msg string, err error) {
	if ctx.Err() != nil {
		return
	}
	h.logger.Error(msg, zap.String("job_id", job.ID), zap.Error(err))
	if job.finish(JobStatusFailed, nil, msg) {
		job.SendEvent(JobEvent{Type: "job_error", Message: msg})
	}
}
