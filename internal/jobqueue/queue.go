package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// Queue defaults.
const (
	// DefaultMaxConcurrentJobs is the default concurrency limit.
	DefaultMaxConcurrentJobs = 2

	// DefaultMaxQueueSize is the default cap on tracked jobs.
	DefaultMaxQueueSize = 100

	// DefaultInlineThresholdBytes is the combined document size above
	// which the isolated backend is preferred (1 MiB).
	DefaultInlineThresholdBytes = 1 << 20

	// DefaultRetainTerminal is how long terminal jobs are kept for late
	// status queries before being purged.
	DefaultRetainTerminal = 30 * time.Second

	// DefaultSlotPollInterval is how often a pending job polls for a
	// free execution slot.
	DefaultSlotPollInterval = 50 * time.Millisecond

	// purgeInterval is how often the purge loop scans for expired
	// terminal jobs.
	purgeInterval = 5 * time.Second
)

// Config configures the job queue.
type Config struct {
	MaxConcurrentJobs    int
	MaxQueueSize         int
	InlineThresholdBytes int64
	RetainTerminal       time.Duration
	SlotPollInterval     time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs:    DefaultMaxConcurrentJobs,
		MaxQueueSize:         DefaultMaxQueueSize,
		InlineThresholdBytes: DefaultInlineThresholdBytes,
		RetainTerminal:       DefaultRetainTerminal,
		SlotPollInterval:     DefaultSlotPollInterval,
	}
}

// normalize fills zero fields with defaults.
func (c Config) normalize() Config {
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.InlineThresholdBytes <= 0 {
		c.InlineThresholdBytes = DefaultInlineThresholdBytes
	}
	if c.RetainTerminal <= 0 {
		c.RetainTerminal = DefaultRetainTerminal
	}
	if c.SlotPollInterval <= 0 {
		c.SlotPollInterval = DefaultSlotPollInterval
	}
	return c
}

// Queue tracks diff jobs through their lifecycle and enforces the
// concurrency limit. Each submission owns a deep copy of its inputs, so
// no mutable state is shared between jobs.
type Queue struct {
	cfg     Config
	logger  observability.Logger
	metrics *observability.Metrics

	inline   ComputeBackend
	isolated ComputeBackend

	isolatedSet bool

	mu      sync.Mutex
	jobs    map[string]*job
	running int
	closed  bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// QueueOption is a functional option for configuring the queue.
type QueueOption func(*Queue)

// WithQueueLogger sets the logger.
func WithQueueLogger(logger observability.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithQueueMetrics sets the metrics.
func WithQueueMetrics(metrics *observability.Metrics) QueueOption {
	return func(q *Queue) {
		q.metrics = metrics
	}
}

// WithIsolatedBackend overrides the isolated backend. Passing nil
// disables isolated execution entirely; every job then runs inline.
func WithIsolatedBackend(backend ComputeBackend) QueueOption {
	return func(q *Queue) {
		q.isolated = backend
		q.isolatedSet = true
	}
}

// New creates a job queue backed by the given engine and starts its
// purge loop.
func New(eng *engine.Engine, cfg Config, opts ...QueueOption) *Queue {
	q := &Queue{
		cfg:    cfg.normalize(),
		logger: observability.NopLogger(),
		jobs:   make(map[string]*job),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.inline = NewInlineBackend(eng, q.logger)
	if !q.isolatedSet {
		q.isolated = NewIsolatedBackend(eng, q.logger)
	}

	q.wg.Add(1)
	go q.purgeLoop()

	return q
}

// Submit enqueues one diff computation and returns its job ID. The
// returned job starts pending; it becomes running only when fewer than
// the concurrency limit are already running.
func (q *Queue) Submit(
	a, b engine.Version,
	opts engine.Options,
	onProgress ProgressFunc,
) (string, error) {
	jobCtx, cancel := context.WithCancel(context.Background())

	j := &job{
		id:         uuid.NewString(),
		versionA:   copyVersion(a),
		versionB:   copyVersion(b),
		options:    opts,
		status:     StatusPending,
		createdAt:  time.Now(),
		cancel:     cancel,
		onProgress: onProgress,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cancel()
		return "", ErrQueueClosed
	}
	if len(q.jobs) >= q.cfg.MaxQueueSize {
		q.mu.Unlock()
		cancel()
		return "", ErrQueueFull
	}
	q.jobs[j.id] = j
	q.mu.Unlock()

	q.logger.Info("job submitted",
		observability.String("jobId", j.id),
		observability.String("versionA", j.versionA.ID),
		observability.String("versionB", j.versionB.ID))

	q.updateGauges()

	q.wg.Add(1)
	go q.run(jobCtx, j)

	return j.id, nil
}

// Cancel requests cooperative cancellation of a job. It returns true if
// the job exists and was not already terminal. Cancellation is advisory
// and observed at pipeline checkpoints; a cancelled job never later
// reports completed.
func (q *Queue) Cancel(jobID string) bool {
	q.mu.Lock()
	j, ok := q.jobs[jobID]
	if !ok || j.status.Terminal() {
		q.mu.Unlock()
		return false
	}
	j.cancelRequested = true
	cancel := j.cancel
	q.mu.Unlock()

	cancel()

	q.logger.Info("job cancellation requested",
		observability.String("jobId", jobID))

	return true
}

// Status returns a snapshot of one job, or false for unknown or purged
// jobs.
func (q *Queue) Status(jobID string) (JobStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[jobID]
	if !ok {
		return JobStatus{}, false
	}
	return j.snapshot(), true
}

// Stats returns aggregate queue statistics without blocking on
// in-flight jobs.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	return QueueStats{
		TotalJobs:         len(q.jobs),
		RunningJobs:       q.running,
		MaxConcurrentJobs: q.cfg.MaxConcurrentJobs,
		MaxQueueSize:      q.cfg.MaxQueueSize,
	}
}

// Close stops the queue. In-flight jobs are cancelled cooperatively.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, j := range q.jobs {
		if !j.status.Terminal() {
			j.cancelRequested = true
			j.cancel()
		}
	}
	q.mu.Unlock()

	close(q.stopCh)
	q.wg.Wait()

	q.logger.Info("job queue closed")
}

// run drives one job through its lifecycle on its own goroutine.
func (q *Queue) run(ctx context.Context, j *job) {
	defer q.wg.Done()
	defer j.cancel()

	if !q.acquireSlot(j) {
		q.finish(j, StatusCancelled, nil, "")
		return
	}

	backend := q.selectBackend(j)

	q.logger.Info("job running",
		observability.String("jobId", j.id),
		observability.String("backend", backend.Name()))

	result, err := backend.Compute(
		observability.ContextWithJobID(ctx, j.id),
		j.versionA, j.versionB, j.options,
		func(percent int) { q.reportProgress(j, percent) },
	)

	q.releaseSlot()

	switch {
	case q.isCancelled(j) || isCancellation(err):
		// A job that finishes computing after being marked cancelled
		// discards its result.
		q.finish(j, StatusCancelled, nil, "")
	case err != nil:
		q.finish(j, StatusError, nil, err.Error())
	default:
		q.finish(j, StatusCompleted, result, "")
	}
}

// acquireSlot waits until a concurrency slot frees up, polling at the
// configured interval. It returns false when the job is cancelled or
// the queue shuts down before a slot is found.
func (q *Queue) acquireSlot(j *job) bool {
	for {
		q.mu.Lock()
		if j.cancelRequested {
			q.mu.Unlock()
			return false
		}
		if q.running < q.cfg.MaxConcurrentJobs {
			q.running++
			j.status = StatusRunning
			j.startedAt = time.Now()
			q.mu.Unlock()
			q.updateGauges()
			return true
		}
		q.mu.Unlock()

		select {
		case <-q.stopCh:
			return false
		case <-time.After(q.cfg.SlotPollInterval):
		}
	}
}

// releaseSlot frees the job's concurrency slot.
func (q *Queue) releaseSlot() {
	q.mu.Lock()
	q.running--
	q.mu.Unlock()
	q.updateGauges()
}

// selectBackend chooses inline or isolated execution from the combined
// estimated document size, falling back to inline when the isolated
// backend is unavailable.
func (q *Queue) selectBackend(j *job) ComputeBackend {
	size := EstimateSize(j.versionA.Payload) + EstimateSize(j.versionB.Payload)

	if q.metrics != nil {
		q.metrics.RecordDocumentSize(size)
	}

	backend := q.inline
	if size > q.cfg.InlineThresholdBytes && q.isolated != nil && q.isolated.Available() {
		backend = q.isolated
	}

	if q.metrics != nil {
		q.metrics.RecordBackendSelection(backend.Name())
	}

	return backend
}

// reportProgress records and forwards a progress update.
func (q *Queue) reportProgress(j *job, percent int) {
	q.mu.Lock()
	if j.status.Terminal() {
		q.mu.Unlock()
		return
	}
	j.progress = percent
	onProgress := j.onProgress
	q.mu.Unlock()

	if onProgress != nil {
		onProgress(j.id, percent)
	}
}

// isCancelled reports whether cancellation was requested for the job.
func (q *Queue) isCancelled(j *job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return j.cancelRequested
}

// finish moves a job to a terminal state.
func (q *Queue) finish(j *job, status Status, result *engine.Result, errMessage string) {
	q.mu.Lock()
	j.status = status
	j.result = result
	j.errMessage = errMessage
	j.terminalAt = time.Now()
	if status == StatusCompleted {
		j.progress = engine.ProgressDone
	}
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.RecordJobTerminal(string(status))
	}
	q.updateGauges()

	q.logger.Info("job finished",
		observability.String("jobId", j.id),
		observability.String("status", string(status)))
}

// purgeLoop periodically removes terminal jobs past the retention
// window so late status queries work briefly after completion.
func (q *Queue) purgeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.purge()
		case <-q.stopCh:
			return
		}
	}
}

// purge removes expired terminal jobs.
func (q *Queue) purge() {
	now := time.Now()

	q.mu.Lock()
	var removed int
	for id, j := range q.jobs {
		if j.status.Terminal() && now.Sub(j.terminalAt) > q.cfg.RetainTerminal {
			delete(q.jobs, id)
			removed++
		}
	}
	q.mu.Unlock()

	if removed > 0 {
		q.logger.Debug("purged terminal jobs",
			observability.Int("removed", removed))
		q.updateGauges()
	}
}

// updateGauges refreshes the running and pending job gauges.
func (q *Queue) updateGauges() {
	if q.metrics == nil {
		return
	}

	q.mu.Lock()
	running := q.running
	pending := 0
	for _, j := range q.jobs {
		if j.status == StatusPending {
			pending++
		}
	}
	q.mu.Unlock()

	q.metrics.SetJobsRunning(running)
	q.metrics.SetJobsPending(pending)
}
