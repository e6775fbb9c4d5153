// Package jobqueue offloads expensive diff computations to background
// execution with concurrency limits, progress reporting, and
// cooperative cancellation.
package jobqueue

import (
	"context"
	"errors"
	"time"

	"github.com/vyrodovalexey/avjsondiff/internal/engine"
)

// Common job queue errors.
var (
	// ErrQueueFull indicates the queue has reached its size limit.
	ErrQueueFull = errors.New("job queue full")

	// ErrQueueClosed indicates the queue has been closed.
	ErrQueueClosed = errors.New("job queue closed")

	// ErrJobNotFound indicates an unknown job ID.
	ErrJobNotFound = errors.New("job not found")
)

// Status is the lifecycle state of a job. Jobs move from pending to
// running and then to exactly one terminal state.
type Status string

// Job lifecycle states.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusError:
		return true
	default:
		return false
	}
}

// JobStatus is a point-in-time snapshot of one job.
type JobStatus struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	Progress  int            `json:"progress"`
	Result    *engine.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"startedAt,omitzero"`
}

// QueueStats is an aggregate snapshot of the queue. Reading it never
// blocks on in-flight jobs.
type QueueStats struct {
	TotalJobs         int `json:"totalJobs"`
	RunningJobs       int `json:"runningJobs"`
	MaxConcurrentJobs int `json:"maxConcurrentJobs"`
	MaxQueueSize      int `json:"maxQueueSize"`
}

// ProgressFunc receives job progress updates on an arbitrary schedule
// following the soft ordering start, 25, 75, 100, done.
type ProgressFunc func(jobID string, percent int)

// job is the internal representation of one queued computation. Each
// job owns its own copy of its inputs.
type job struct {
	id       string
	versionA engine.Version
	versionB engine.Version
	options  engine.Options

	status     Status
	progress   int
	result     *engine.Result
	errMessage string

	createdAt  time.Time
	startedAt  time.Time
	terminalAt time.Time

	// cancelRequested is set by Cancel and observed at pipeline
	// checkpoints. A job that finishes computing after being marked
	// cancelled discards its result.
	cancelRequested bool

	cancel     context.CancelFunc
	onProgress ProgressFunc
}

// snapshot builds a JobStatus from the job. Caller must hold the queue
// lock.
func (j *job) snapshot() JobStatus {
	return JobStatus{
		ID:        j.id,
		Status:    j.status,
		Progress:  j.progress,
		Result:    j.result,
		Error:     j.errMessage,
		StartedAt: j.startedAt,
	}
}
