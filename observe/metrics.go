package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Cache event names recorded through Metrics.RecordCacheEvent.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheWrite      = "write"
	CacheWriteError = "write_error"
	CacheEvict      = "evict"
	CacheEvictError = "evict_error"
)

// Metrics records execution metrics for units.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExecution records a completed unit execution: its duration, the
	// outcome channel it resolved to, and whether the result came from cache.
	RecordExecution(ctx context.Context, meta UnitMeta, duration time.Duration, outcome string, cached bool)

	// RecordCacheEvent records one cache interaction (hit, miss, write, evict
	// or their error variants) observed while executing a unit.
	RecordCacheEvent(ctx context.Context, meta UnitMeta, event string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	execTotal    metric.Int64Counter
	execDuration metric.Float64Histogram
	cacheEvents  metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	execTotal, err := meter.Int64Counter(
		"unit.exec.total",
		metric.WithDescription("Total number of unit executions"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	execDuration, err := meter.Float64Histogram(
		"unit.exec.duration_ms",
		metric.WithDescription("Unit execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheEvents, err := meter.Int64Counter(
		"unit.cache.events",
		metric.WithDescription("Cache interactions observed during unit execution"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		execTotal:    execTotal,
		execDuration: execDuration,
		cacheEvents:  cacheEvents,
	}, nil
}

// RecordExecution records metrics for a unit execution.
func (m *metricsImpl) RecordExecution(ctx context.Context, meta UnitMeta, duration time.Duration, outcome string, cached bool) {
	opt := metric.WithAttributes(
		attribute.String("unit.id", meta.ID),
		attribute.String("unit.outcome", outcome),
		attribute.Bool("unit.cached", cached),
	)

	m.execTotal.Add(ctx, 1, opt)
	m.execDuration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

// RecordCacheEvent increments the cache event counter.
func (m *metricsImpl) RecordCacheEvent(ctx context.Context, meta UnitMeta, event string) {
	m.cacheEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("unit.id", meta.ID),
		attribute.String("cache.event", event),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordExecution(ctx context.Context, meta UnitMeta, duration time.Duration, outcome string, cached bool) {
}

func (m *noopMetrics) RecordCacheEvent(ctx context.Context, meta UnitMeta, event string) {}
