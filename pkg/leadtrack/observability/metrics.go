package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records leadtrack metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAdapter records one adapter call and its outcome
	// (dispatched, skipped, or failed).
	RecordAdapter(ctx context.Context, adapter, outcome string, duration time.Duration)

	// RecordDispatch records a completed fan-out.
	RecordDispatch(ctx context.Context, event string, failed int, duration time.Duration)

	// RecordLoader records a loader script fetch.
	RecordLoader(ctx context.Context, script string, success bool, attempts int, duration time.Duration)
}

type otelMetrics struct {
	adapterCalls    metric.Int64Counter
	adapterLatency  metric.Float64Histogram
	adapterFailures metric.Int64Counter
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	loaderFetches   metric.Int64Counter
	loaderAttempts  metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("leadtrack")

	adapterCalls, err := meter.Int64Counter("leadtrack.adapter.calls",
		metric.WithDescription("Number of adapter calls by outcome"),
	)
	if err != nil {
		return nil, err
	}

	adapterLatency, err := meter.Float64Histogram("leadtrack.adapter.latency_ms",
		metric.WithDescription("Adapter call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	adapterFailures, err := meter.Int64Counter("leadtrack.adapter.failures",
		metric.WithDescription("Number of failed adapter calls"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("leadtrack.dispatch.count",
		metric.WithDescription("Number of dispatched events"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("leadtrack.dispatch.latency_ms",
		metric.WithDescription("Fan-out latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	loaderFetches, err := meter.Int64Counter("leadtrack.loader.fetches",
		metric.WithDescription("Number of loader script fetches"),
	)
	if err != nil {
		return nil, err
	}

	loaderAttempts, err := meter.Int64Histogram("leadtrack.loader.attempts",
		metric.WithDescription("Attempts needed per loader script fetch"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		adapterCalls:    adapterCalls,
		adapterLatency:  adapterLatency,
		adapterFailures: adapterFailures,
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		loaderFetches:   loaderFetches,
		loaderAttempts:  loaderAttempts,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordAdapter records an adapter call.
func (m *otelMetrics) RecordAdapter(ctx context.Context, adapter, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("adapter", adapter),
		attribute.String("outcome", outcome),
	)
	m.adapterCalls.Add(ctx, 1, attrs)
	m.adapterLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if outcome == "failed" {
		m.adapterFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("adapter", adapter)))
	}
}

// RecordDispatch records a fan-out.
func (m *otelMetrics) RecordDispatch(ctx context.Context, event string, failed int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event", event),
		attribute.Bool("partial", failed > 0),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordLoader records a loader fetch.
func (m *otelMetrics) RecordLoader(ctx context.Context, script string, success bool, attempts int, _ time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("script", script),
		attribute.Bool("success", success),
	)
	m.loaderFetches.Add(ctx, 1, attrs)
	m.loaderAttempts.Record(ctx, int64(attempts), attrs)
}
