package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avjsondiff/internal/engine"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
	"github.com/vyrodovalexey/avjsondiff/internal/util"
)

// Circuit breaker defaults for the isolated backend.
const (
	defaultBreakerRequests = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// IsolatedBackend dispatches computations to a dedicated goroutine,
// isolating the caller from panics in the pipeline. A circuit breaker
// guards the backend: repeated failures open the circuit and the queue
// falls back to inline execution until it recovers.
type IsolatedBackend struct {
	engine  *engine.Engine
	logger  observability.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewIsolatedBackend creates an isolated compute backend.
func NewIsolatedBackend(eng *engine.Engine, logger observability.Logger) *IsolatedBackend {
	if logger == nil {
		logger = observability.NopLogger()
	}

	b := &IsolatedBackend{
		engine: eng,
		logger: logger,
	}

	settings := gobreaker.Settings{
		Name:    "isolated-compute",
		Timeout: defaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= defaultBreakerRequests && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Info("isolated backend circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Cancellation and invalid input are the caller's doing, not
			// a backend failure.
			return err == nil || util.IsRecoverable(err) ||
				isCancellation(err)
		},
	}

	b.breaker = gobreaker.NewCircuitBreaker(settings)
	return b
}

// Name implements ComputeBackend.
func (b *IsolatedBackend) Name() string {
	return BackendIsolated
}

// Available implements ComputeBackend. The backend is unavailable while
// its circuit breaker is open.
func (b *IsolatedBackend) Available() bool {
	return b.breaker.State() != gobreaker.StateOpen
}

// computeOutcome carries a result across the isolation boundary.
type computeOutcome struct {
	result *engine.Result
	err    error
}

// Compute implements ComputeBackend. The computation runs on its own
// goroutine with panics converted to compute errors.
func (b *IsolatedBackend) Compute(
	ctx context.Context,
	a, bVer engine.Version,
	opts engine.Options,
	progress engine.ProgressFunc,
) (*engine.Result, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		outcome := b.dispatch(ctx, a, bVer, opts, progress)
		return outcome.result, outcome.err
	})
	if err != nil {
		return nil, err
	}

	result, _ := out.(*engine.Result)
	return result, nil
}

// dispatch runs the computation on a dedicated goroutine and waits for
// its outcome. The goroutine always delivers exactly one outcome, so
// the job is never abandoned mid-flight even when the context ends.
func (b *IsolatedBackend) dispatch(
	ctx context.Context,
	a, bVer engine.Version,
	opts engine.Options,
	progress engine.ProgressFunc,
) computeOutcome {
	outcomeCh := make(chan computeOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomeCh <- computeOutcome{
					err: util.NewComputeError("isolated", fmt.Sprintf("panic: %v", r)),
				}
			}
		}()

		result, err := b.engine.ComputeDiffWithProgress(ctx, a, bVer, opts, progress)
		outcomeCh <- computeOutcome{result: result, err: err}
	}()

	return <-outcomeCh
}

// isCancellation reports whether the error stems from cooperative
// cancellation.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, util.ErrCancelled)
}
