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

// MetricsRecorder records node runtime metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when
// disabled.
type MetricsRecorder interface {
	// RecordEventReceived records one event pulled from the stream and
	// the time spent blocked waiting for it.
	RecordEventReceived(ctx context.Context, kind string, wait time.Duration)

	// RecordStreamError records a stream fault surfaced as an Error
	// event.
	RecordStreamError(ctx context.Context)

	// RecordDispatch records an output send with its payload size,
	// duration, and error status.
	RecordDispatch(ctx context.Context, outputID string, bytes int, dur time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsReceived  metric.Int64Counter
	eventWait       metric.Float64Histogram
	streamErrors    metric.Int64Counter
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	dispatchBytes   metric.Int64Histogram
	dispatchErrors  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel metrics
// instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("driftnode")

	eventsReceived, err := meter.Int64Counter("driftnode.events.received",
		metric.WithDescription("Number of events pulled from the stream"),
	)
	if err != nil {
		return nil, err
	}

	eventWait, err := meter.Float64Histogram("driftnode.events.wait_ms",
		metric.WithDescription("Time spent blocked waiting for an event in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	streamErrors, err := meter.Int64Counter("driftnode.stream.errors",
		metric.WithDescription("Number of stream faults surfaced as Error events"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("driftnode.dispatch.count",
		metric.WithDescription("Number of output dispatch attempts"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("driftnode.dispatch.latency_ms",
		metric.WithDescription("Output dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatchBytes, err := meter.Int64Histogram("driftnode.dispatch.bytes",
		metric.WithDescription("Output payload size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	dispatchErrors, err := meter.Int64Counter("driftnode.dispatch.errors",
		metric.WithDescription("Number of failed output dispatches"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsReceived:  eventsReceived,
		eventWait:       eventWait,
		streamErrors:    streamErrors,
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		dispatchBytes:   dispatchBytes,
		dispatchErrors:  dispatchErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global
// OTel meter provider. Falls back to NoopMetrics when instrument
// creation fails, logging the failure once.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Default().Warn("metrics disabled: instrument creation failed",
			slog.String("error", err.Error()),
		)
		return NoopMetrics{}
	}
	return m
}

// RecordEventReceived implements MetricsRecorder.
func (m *otelMetrics) RecordEventReceived(ctx context.Context, kind string, wait time.Duration) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.eventsReceived.Add(ctx, 1, attrs)
	m.eventWait.Record(ctx, float64(wait.Microseconds())/1000, attrs)
}

// RecordStreamError implements MetricsRecorder.
func (m *otelMetrics) RecordStreamError(ctx context.Context) {
	m.streamErrors.Add(ctx, 1)
}

// RecordDispatch implements MetricsRecorder.
func (m *otelMetrics) RecordDispatch(ctx context.Context, outputID string, bytes int, dur time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("output_id", outputID))
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchLatency.Record(ctx, float64(dur.Microseconds())/1000, attrs)
	m.dispatchBytes.Record(ctx, int64(bytes), attrs)
	if err != nil {
		m.dispatchErrors.Add(ctx, 1, attrs)
	}
}
