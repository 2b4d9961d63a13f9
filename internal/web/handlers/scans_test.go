package handlers

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-map/internal/cluster"
	"github.com/kozaktomas/photo-map/internal/geo"
)

// blockingLocator never returns until its context is done.
type blockingLocator struct{}

func (blockingLocator) ReadLocation(ctx context.Context, path string) (*geo.Point, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func scanRouter(h *ScanHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/scans", h.Start)
	r.Get("/scans", h.List)
	r.Get("/scans/{jobId}", h.Status)
	r.Get("/scans/{jobId}/events", h.Events)
	r.Delete("/scans/{jobId}", h.Cancel)
	return r
}

func startScan(t *testing.T, r http.Handler) string {
	t.Helper()
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("POST", "/scans", nil))
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var started map[string]string
	decodeBody(t, recorder, &started)
	if started["job_id"] == "" {
		t.Fatal("expected non-empty job_id")
	}
	return started["job_id"]
}

func waitForStatus(t *testing.T, jm *JobManager, id string, want JobStatus) *ScanJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job := jm.GetJob(id)
		if job != nil && job.GetStatus() == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %s", id, want)
	return nil
}

func TestScanHandler_CompletesWithMap(t *testing.T) {
	dir := t.TempDir()
	tg := newTagger()
	paris := geo.Point{Lat: 48.8566, Lon: 2.3522}

	a := writeJPEG(t, dir, "a.jpg")
	b := writeJPEG(t, dir, "b.jpg")
	if err := tg.WriteLocation(context.Background(), a, paris); err != nil {
		t.Fatal(err)
	}

	jm := NewJobManager()
	h := NewScanHandler(staticGallery{paths: []string{a, b}}, tg, cluster.Options{Workers: 2}, 12, jm, nil)
	r := scanRouter(h)

	id := startScan(t, r)
	waitForStatus(t, jm, id, JobStatusCompleted)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/scans/"+id, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var view ScanJobView
	decodeBody(t, recorder, &view)
	if view.Total != 2 || view.Processed != 2 || view.Progress != 100 {
		t.Errorf("unexpected progress %+v", view)
	}
	if view.CompletedAt == nil {
		t.Error("expected completed_at")
	}
	if view.Result == nil || len(view.Result.Markers) != 1 || view.Result.Markers[0].Head != a {
		t.Fatalf("unexpected result %+v", view.Result)
	}
	// the focus is the decoded location, truncated to whole arc-seconds
	want := geo.Point{Lat: 48 + 51.0/60 + 23.0/3600, Lon: 2 + 21.0/60 + 7.0/3600}
	if view.Result.Focus == nil ||
		math.Abs(view.Result.Focus.Lat-want.Lat) > 1e-9 || math.Abs(view.Result.Focus.Lon-want.Lon) > 1e-9 {
		t.Errorf("expected focus %v, got %v", want, view.Result.Focus)
	}
}

func TestScanHandler_ListingFailure(t *testing.T) {
	jm := NewJobManager()
	h := NewScanHandler(staticGallery{err: context.DeadlineExceeded}, newTagger(), cluster.Options{}, 12, jm, nil)
	r := scanRouter(h)

	id := startScan(t, r)
	job := waitForStatus(t, jm, id, JobStatusFailed)

	if view := job.View(); view.Error != "failed to list gallery" {
		t.Errorf("unexpected error %q", view.Error)
	}
}

func TestScanHandler_Cancel(t *testing.T) {
	jm := NewJobManager()
	h := NewScanHandler(staticGallery{paths: []string{"a.jpg"}}, blockingLocator{}, cluster.Options{}, 12, jm, nil)
	r := scanRouter(h)

	id := startScan(t, r)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/scans/"+id, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	job := waitForStatus(t, jm, id, JobStatusCancelled)
	// give the worker time to observe the cancellation
	time.Sleep(50 * time.Millisecond)
	if job.GetStatus() != JobStatusCancelled {
		t.Errorf("expected job to stay cancelled, got %s", job.GetStatus())
	}

	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/scans/"+id, nil))
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected status 409 for a finished job, got %d", recorder.Code)
	}
}

func TestScanHandler_UnknownJob(t *testing.T) {
	h := NewScanHandler(staticGallery{}, newTagger(), cluster.Options{}, 12, NewJobManager(), nil)
	r := scanRouter(h)

	for _, req := range []*http.Request{
		httptest.NewRequest("GET", "/scans/missing", nil),
		httptest.NewRequest("GET", "/scans/missing/events", nil),
		httptest.NewRequest("DELETE", "/scans/missing", nil),
	} {
		recorder := httptest.NewRecorder()
		r.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected status 404, got %d", req.Method, req.URL.Path, recorder.Code)
		}
	}
}

func TestScanHandler_EventsOfFinishedJob(t *testing.T) {
	jm := NewJobManager()
	h := NewScanHandler(staticGallery{}, newTagger(), cluster.Options{}, 12, jm, nil)
	r := scanRouter(h)

	id := startScan(t, r)
	waitForStatus(t, jm, id, JobStatusCompleted)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/scans/"+id+"/events", nil))

	if ct := recorder.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	body := recorder.Body.String()
	if !strings.HasPrefix(body, "event: status\ndata: ") {
		t.Errorf("expected a status event, got %q", body)
	}
	if !strings.Contains(body, `"status":"completed"`) {
		t.Errorf("expected completed status in %q", body)
	}
}

func TestScanHandler_EventsOfUnknownJob(t *testing.T) {
	h := NewScanHandler(staticGallery{}, newTagger(), cluster.Options{}, 12, NewJobManager(), nil)

	recorder := httptest.NewRecorder()
	scanRouter(h).ServeHTTP(recorder, httptest.NewRequest("GET", "/scans/nope/events", nil))

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct == "text/event-stream" {
		t.Error("expected no event stream for an unknown scan")
	}
}

func TestScanHandler_List(t *testing.T) {
	jm := NewJobManager()
	h := NewScanHandler(staticGallery{}, newTagger(), cluster.Options{}, 12, jm, nil)
	r := scanRouter(h)

	id := startScan(t, r)
	waitForStatus(t, jm, id, JobStatusCompleted)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/scans", nil))

	var views []ScanJobView
	decodeBody(t, recorder, &views)
	if len(views) != 1 || views[0].ID != id {
		t.Fatalf("unexpected jobs %+v", views)
	}
	if views[0].Result != nil {
		t.Error("expected list entries without results")
	}
}
