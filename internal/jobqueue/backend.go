package jobqueue

import (
	"context"
	"encoding/json"

	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
)

// Backend names reported in logs and metrics.
const (
	BackendInline   = "inline"
	BackendIsolated = "isolated"
)

// ComputeBackend abstracts where a diff computation runs. The inline
// backend executes on the calling goroutine; the isolated backend
// dispatches to a separate execution context. The pipeline itself is
// treated as an opaque unit of work.
type ComputeBackend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Available reports whether the backend can currently accept work.
	Available() bool

	// Compute runs one diff computation.
	Compute(
		ctx context.Context,
		a, b engine.Version,
		opts engine.Options,
		progress engine.ProgressFunc,
	) (*engine.Result, error)
}

// InlineBackend runs computations directly on the calling goroutine.
// It is always available and deterministic, which also makes it the
// backend of choice in tests.
type InlineBackend struct {
	engine *engine.Engine
	logger observability.Logger
}

// NewInlineBackend creates an inline compute backend.
func NewInlineBackend(eng *engine.Engine, logger observability.Logger) *InlineBackend {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &InlineBackend{engine: eng, logger: logger}
}

// Name implements ComputeBackend.
func (b *InlineBackend) Name() string {
	return BackendInline
}

// Available implements ComputeBackend. The inline backend is always
// available.
func (b *InlineBackend) Available() bool {
	return true
}

// Compute implements ComputeBackend.
func (b *InlineBackend) Compute(
	ctx context.Context,
	a, bVer engine.Version,
	opts engine.Options,
	progress engine.ProgressFunc,
) (*engine.Result, error) {
	return b.engine.ComputeDiffWithProgress(ctx, a, bVer, opts, progress)
}

// EstimateSize returns the estimated serialized size of a document in
// bytes, used to choose between inline and isolated execution.
func EstimateSize(doc interface{}) int64 {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0
	}
	return int64(len(data))
}

// copyVersion deep-copies a version so each job owns its inputs and no
// mutable state is shared between jobs.
func copyVersion(v engine.Version) engine.Version {
	out := v
	out.Payload = copyValue(v.Payload)
	return out
}

// copyValue deep-copies a JSON value.
func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[k] = copyValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = copyValue(child)
		}
		return out
	default:
		return val
	}
}
