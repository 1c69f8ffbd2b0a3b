package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation bundles tracing, metrics, and logging for unit execution.
//
// Contract:
//   - Concurrency: safe for concurrent use; one Execution per call to Begin.
//   - Context: Begin returns a context carrying the execution span.
//   - Errors: all recording is best-effort and must not panic.
type Instrumentation struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewInstrumentation creates an Instrumentation from the given components.
// Nil components are replaced with no-op implementations.
func NewInstrumentation(tracer Tracer, metrics Metrics, logger Logger) *Instrumentation {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Instrumentation{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NoopInstrumentation returns an Instrumentation that records nothing.
func NoopInstrumentation() *Instrumentation {
	return NewInstrumentation(nil, nil, nil)
}

// InstrumentationFromObserver creates an Instrumentation from an Observer.
// This is a convenience function for common use cases.
func InstrumentationFromObserver(obs Observer) (*Instrumentation, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewInstrumentation(tracer, metrics, obs.Logger()), nil
}

// Logger returns the logger this Instrumentation records with.
func (in *Instrumentation) Logger() Logger {
	return in.logger
}

// Begin starts an observed execution for the given unit. The token, when
// non-empty, is attached to the span and every log line so one execution can
// be correlated across signals. End must be called exactly once.
func (in *Instrumentation) Begin(ctx context.Context, meta UnitMeta, token string) (context.Context, *Execution) {
	ctx, span := in.tracer.StartSpan(ctx, meta)
	if token != "" {
		span.SetAttributes(attribute.String("unit.execution", token))
	}

	return ctx, &Execution{
		in:    in,
		meta:  meta,
		span:  span,
		start: time.Now(),
		token: token,
	}
}

// Execution is one observed unit execution, created by Begin.
type Execution struct {
	in    *Instrumentation
	meta  UnitMeta
	span  trace.Span
	start time.Time
	token string
}

// CacheEvent records one cache interaction for this execution.
func (ex *Execution) CacheEvent(ctx context.Context, event string) {
	ex.in.metrics.RecordCacheEvent(ctx, ex.meta, event)
	ex.span.AddEvent("cache." + event)
}

// End completes the execution: the span is closed with the outcome recorded,
// duration and outcome metrics are emitted, and a summary line is logged.
// err is the terminal dispatch error, if any; routed failure outcomes are
// normal completions and arrive here with err == nil.
func (ex *Execution) End(ctx context.Context, outcome string, cached bool, err error) {
	duration := time.Since(ex.start)

	ex.span.SetAttributes(
		attribute.String("unit.outcome", outcome),
		attribute.Bool("unit.cached", cached),
	)
	ex.in.tracer.EndSpan(ex.span, err)

	ex.in.metrics.RecordExecution(ctx, ex.meta, duration, outcome, cached)

	unitLogger := ex.in.logger.WithUnit(ex.meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
		{Key: "outcome", Value: outcome},
		{Key: "cached", Value: cached},
	}
	if ex.token != "" {
		fields = append(fields, Field{Key: "execution", Value: ex.token})
	}

	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		unitLogger.Error(ctx, "unit execution failed", fields...)
	} else {
		unitLogger.Info(ctx, "unit execution completed", fields...)
	}
}
