package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/photo-map/internal/constants"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// ScanJob is a gallery scan running in the background.
type ScanJob struct {
	EventBroadcaster

	ID          string
	Status      JobStatus
	Total       int
	Processed   int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Result      *MapResponse
}

// ScanJobView is the JSON form of a ScanJob.
type ScanJobView struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	Progress    int          `json:"progress"`
	Total       int          `json:"total_photos"`
	Processed   int          `json:"processed_photos"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Result      *MapResponse `json:"result,omitempty"`
}

// View returns a consistent snapshot of the job.
func (j *ScanJob) View() ScanJobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v := ScanJobView{
		ID:          j.ID,
		Status:      j.Status,
		Total:       j.Total,
		Processed:   j.Processed,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Result:      j.Result,
	}
	if j.Total > 0 {
		v.Progress = j.Processed * 100 / j.Total
	}
	return v
}

// GetStatus returns the current job status (implements SSEJob).
func (j *ScanJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Cancel cancels the scan job. Finished jobs are left as they are.
func (j *ScanJob) Cancel() bool {
	j.mu.Lock()
	if isJobTerminal(j.Status) {
		j.mu.Unlock()
		return false
	}
	j.Status = JobStatusCancelled
	now := time.Now()
	j.CompletedAt = &now
	j.mu.Unlock()

	j.EventBroadcaster.Cancel()
	return true
}

// start moves a pending job to running. It fails when the job was cancelled
// before it got to run.
func (j *ScanJob) start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != JobStatusPending {
		return false
	}
	j.Status = JobStatusRunning
	return true
}

// finish moves the job into a terminal state unless it was cancelled first.
func (j *ScanJob) finish(status JobStatus, result *MapResponse, errMsg string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if isJobTerminal(j.Status) {
		return false
	}
	now := time.Now()
	j.Status = status
	j.Result = result
	j.Error = errMsg
	j.CompletedAt = &now
	return true
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages scan jobs. Only the most recent finished jobs are kept.
type JobManager struct {
	jobs  map[string]*ScanJob
	order []string
	keep  int
	mu    sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*ScanJob),
		keep: constants.MaxFinishedScanJobs,
	}
}

// CreateJob creates a new pending scan job.
func (m *JobManager) CreateJob(id string) *ScanJob {
	job := &ScanJob{
		ID:        id,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.order = append(m.order, id)
	m.pruneLocked()
	m.mu.Unlock()

	return job
}

// pruneLocked drops the oldest finished jobs beyond the keep limit.
func (m *JobManager) pruneLocked() {
	finished := 0
	for _, id := range m.order {
		if isJobTerminal(m.jobs[id].GetStatus()) {
			finished++
		}
	}

	kept := m.order[:0]
	for _, id := range m.order {
		if finished > m.keep && isJobTerminal(m.jobs[id].GetStatus()) {
			delete(m.jobs, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *ScanJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all jobs, oldest first.
func (m *JobManager) ListJobs() []*ScanJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*ScanJob, 0, len(m.order))
	for _, id := range m.order {
		jobs = append(jobs, m.jobs[id])
	}
	return jobs
}
