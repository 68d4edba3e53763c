// Package batch coordinates concurrent mosaic generation across multiple
// videos, tracking each as a cancellable task.
package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/pipeline"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status is final. Terminal tasks never
// change state again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Task tracks one video's generation through its lifecycle. The running
// worker is the only writer of status, progress and outcome; all reads go
// through the task mutex.
type Task struct {
	id  string
	req pipeline.Request
	cfg *config.MosaicConfig

	mu       sync.Mutex
	status   Status
	progress float64
	result   *pipeline.Result
	err      error
	cancel   context.CancelFunc
}

func newTask(cfg *config.MosaicConfig, req pipeline.Request) *Task {
	return &Task{
		id:     uuid.New().String(),
		req:    req,
		cfg:    cfg,
		status: StatusQueued,
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string {
	return t.id
}

// InputPath returns the video the task generates a mosaic for.
func (t *Task) InputPath() string {
	return t.req.InputPath
}

// Config returns the configuration the task runs with.
func (t *Task) Config() *config.MosaicConfig {
	return t.cfg
}

// Snapshot is a point-in-time copy of a task's observable state.
type Snapshot struct {
	ID         string
	InputPath  string
	OutputPath string
	Status     Status
	Progress   float64
	Error      string
}

// Snapshot returns the task's current state. OutputPath is the final
// path once completed, otherwise the requested override (possibly empty).
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		ID:         t.id,
		InputPath:  t.req.InputPath,
		OutputPath: t.req.OutputPath,
		Status:     t.status,
		Progress:   t.progress,
	}
	if t.result != nil {
		snap.OutputPath = t.result.OutputPath
	}
	if t.err != nil {
		snap.Error = t.err.Error()
	}
	return snap
}

// Outcome returns the task's result and error. Both are nil until the
// task reaches a terminal state.
func (t *Task) Outcome() (*pipeline.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// begin moves the task to InProgress and registers its cancel function.
// It returns false when the task was cancelled before starting.
func (t *Task) begin(cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusQueued {
		return false
	}
	t.status = StatusInProgress
	t.cancel = cancel
	return true
}

// setProgress advances the task's completion fraction. Regressions are
// dropped so observers always see monotonic progress.
func (t *Task) setProgress(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fraction > t.progress {
		t.progress = fraction
	}
}

// finish records the outcome and moves the task to its terminal state.
func (t *Task) finish(result *pipeline.Result, err error, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = status
	t.result = result
	t.err = err
	t.cancel = nil
	if status == StatusCompleted {
		t.progress = 1.0
	}
}

// requestCancel cancels the task: a queued task goes straight to
// Cancelled, a running one has its context cancelled and reaches
// Cancelled through its worker. Terminal tasks are left alone.
func (t *Task) requestCancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case StatusQueued:
		t.status = StatusCancelled
	case StatusInProgress:
		if t.cancel != nil {
			t.cancel()
		}
	}
}
