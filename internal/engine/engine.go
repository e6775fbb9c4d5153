package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avjsondiff/internal/delta"
	"github.com/vyrodovalexey/avjsondiff/internal/observability"
	"github.com/vyrodovalexey/avjsondiff/internal/preprocess"
	"github.com/vyrodovalexey/avjsondiff/internal/rules"
	"github.com/vyrodovalexey/avjsondiff/internal/tree"
	"github.com/vyrodovalexey/avjsondiff/internal/util"
)

// engineTracerName is the OpenTelemetry tracer name for diff operations.
const engineTracerName = "avjsondiff/engine"

// Progress milestones reported between pipeline stages.
const (
	ProgressStart        = 0
	ProgressPreprocessed = 25
	ProgressDelta        = 75
	ProgressDone         = 100
)

// ProgressFunc receives pipeline progress percentages. Callbacks follow
// a soft ordering; callers must not assume strict timing.
type ProgressFunc func(percent int)

// Engine computes diffs. It is stateless apart from its collaborators
// and safe for concurrent use; every call owns its configuration.
type Engine struct {
	logger   observability.Logger
	metrics  *observability.Metrics
	computer delta.Computer
	builder  *tree.Builder
}

// Option is a functional option for configuring the engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithBuilder sets a custom tree builder.
func WithBuilder(builder *tree.Builder) Option {
	return func(e *Engine) {
		e.builder = builder
	}
}

// New creates a diff engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   observability.NopLogger(),
		computer: delta.NewComputer(),
		builder:  tree.NewBuilder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ValidateOptions runs the dedicated validation pass over diff options.
// Rule issues are recoverable and reported for correction; the returned
// error is non-nil only for configurations the engine cannot run at
// all, such as a keyed strategy without a key path.
func (e *Engine) ValidateOptions(opts Options) ([]rules.Issue, error) {
	if opts.ArrayStrategy == delta.StrategyKeyed && opts.ArrayKeyPath == "" {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, delta.ErrMissingKeyPath)
	}

	switch opts.ArrayStrategy {
	case "", delta.StrategyIndex, delta.StrategyKeyed:
	default:
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, delta.ErrUnknownStrategy)
	}

	return rules.Validate(opts.IgnoreRules, opts.TransformRules), nil
}

// ComputeDiff computes the diff between two versions. It is pure given
// its inputs: repeated calls yield identical trees and node counts.
func (e *Engine) ComputeDiff(ctx context.Context, a, b Version, opts Options) (*Result, error) {
	return e.compute(ctx, a, b, opts, nil)
}

// ComputeDiffWithProgress computes a diff, reporting progress at each
// pipeline checkpoint.
func (e *Engine) ComputeDiffWithProgress(
	ctx context.Context,
	a, b Version,
	opts Options,
	progress ProgressFunc,
) (*Result, error) {
	return e.compute(ctx, a, b, opts, progress)
}

// compute runs the pipeline: validate, preprocess, delta, tree.
// Cancellation is observed at the checkpoints before start, after
// preprocessing, and after delta computation.
func (e *Engine) compute(
	ctx context.Context,
	a, b Version,
	opts Options,
	progress ProgressFunc,
) (*Result, error) {
	ctx, span := otel.Tracer(engineTracerName).Start(ctx, "engine.ComputeDiff",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("diff.version_a", a.ID),
			attribute.String("diff.version_b", b.ID),
			attribute.String("diff.array_strategy", string(opts.ArrayStrategy)),
		),
	)
	defer span.End()

	start := time.Now()
	strategy := opts.ArrayStrategy
	if strategy == "" {
		strategy = delta.StrategyIndex
	}

	if _, err := e.ValidateOptions(opts); err != nil {
		e.recordOutcome(strategy, "invalid", start, 0)
		return nil, err
	}

	// Checkpoint: before start.
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	report(progress, ProgressStart)

	pre := preprocess.New(opts.IgnoreRules, opts.TransformRules, e.logger)
	docA := e.preprocessStage(ctx, pre, a.Payload)
	docB := e.preprocessStage(ctx, pre, b.Payload)

	// Checkpoint: after preprocessing.
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	report(progress, ProgressPreprocessed)

	d, err := e.deltaStage(ctx, docA, docB, delta.Config{
		ArrayStrategy: strategy,
		ArrayKeyPath:  opts.ArrayKeyPath,
	})
	if err != nil {
		e.recordOutcome(strategy, "error", start, 0)
		return nil, util.NewComputeErrorWithCause("delta", "delta computation failed", err)
	}

	// Checkpoint: after delta computation.
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	report(progress, ProgressDelta)

	root := e.treeStage(ctx, d, strategy)
	report(progress, ProgressDone)

	elapsed := time.Since(start)
	nodes := root.CountNodes()

	result := &Result{
		VersionA:   a.ID,
		VersionB:   b.ID,
		OptionsKey: OptionsKey(opts),
		Root:       root,
		Stats: Stats{
			Nodes:     nodes,
			ComputeMs: elapsed.Milliseconds(),
		},
	}

	span.SetAttributes(attribute.Int("diff.nodes", nodes))
	e.recordOutcome(strategy, "ok", start, nodes)

	e.logger.WithContext(ctx).Debug("diff computed",
		observability.String("versionA", a.ID),
		observability.String("versionB", b.ID),
		observability.Int("nodes", nodes),
		observability.Duration("elapsed", elapsed))

	return result, nil
}

// preprocessStage applies rules to one document inside its own span.
func (e *Engine) preprocessStage(ctx context.Context, pre *preprocess.Preprocessor, doc interface{}) interface{} {
	_, span := otel.Tracer(engineTracerName).Start(ctx, "engine.Preprocess",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	return pre.Apply(doc)
}

// deltaStage computes the structural delta inside its own span.
func (e *Engine) deltaStage(ctx context.Context, a, b interface{}, cfg delta.Config) (*delta.Delta, error) {
	_, span := otel.Tracer(engineTracerName).Start(ctx, "engine.Delta",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	return e.computer.Diff(a, b, cfg)
}

// treeStage builds the diff tree inside its own span.
func (e *Engine) treeStage(ctx context.Context, d *delta.Delta, strategy delta.Strategy) *tree.DiffNode {
	_, span := otel.Tracer(engineTracerName).Start(ctx, "engine.BuildTree",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	return e.builder.Build(d, strategy)
}

// recordOutcome records diff metrics when metrics are configured.
func (e *Engine) recordOutcome(strategy delta.Strategy, outcome string, start time.Time, nodes int) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordDiff(string(strategy), outcome, time.Since(start), nodes)
}

// checkpoint observes cooperative cancellation.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrCancelled, err)
	}
	return nil
}

// report invokes the progress callback when one is set.
func report(progress ProgressFunc, percent int) {
	if progress != nil {
		progress(percent)
	}
}
