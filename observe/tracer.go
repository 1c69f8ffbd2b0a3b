package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// UnitMeta contains metadata about a unit for telemetry purposes.
type UnitMeta struct {
	ID      string   // Unit identifier (required)
	Version string   // Unit version (optional)
	Tags    []string // Unit tags for filtering (optional)
}

// SpanName returns the deterministic span name for this unit.
// Format: unit.exec.<id>
func (m UnitMeta) SpanName() string {
	return "unit.exec." + m.ID
}

// Validate checks that the metadata is usable for telemetry.
func (m UnitMeta) Validate() error {
	if m.ID == "" {
		return ErrMissingUnitID
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with unit-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for unit execution.
	StartSpan(ctx context.Context, meta UnitMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with unit metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta UnitMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("unit.id", meta.ID),
		attribute.Bool("unit.error", false), // Updated in EndSpan on error
	}

	if meta.Version != "" {
		attrs = append(attrs, attribute.String("unit.version", meta.Version))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("unit.tags", meta.Tags))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("unit.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta UnitMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
