package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider and returns
// the reader plus a cleanup function.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}
	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordEventReceived(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEventReceived(ctx, "input", 50*time.Millisecond)
	m.RecordEventReceived(ctx, "input", 10*time.Millisecond)
	m.RecordEventReceived(ctx, "stop", time.Millisecond)

	rm := collectMetrics(t, reader)

	received := findMetric(rm, "driftnode.events.received")
	require.NotNil(t, received)
	sum, ok := received.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)

	wait := findMetric(rm, "driftnode.events.wait_ms")
	require.NotNil(t, wait)
	hist, ok := wait.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestRecordStreamError(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordStreamError(context.Background())
	m.RecordStreamError(context.Background())

	rm := collectMetrics(t, reader)
	errs := findMetric(rm, "driftnode.stream.errors")
	require.NotNil(t, errs)
	sum, ok := errs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestRecordDispatch(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordDispatch(ctx, "result", 12, 2*time.Millisecond, nil)
	m.RecordDispatch(ctx, "result", 4, time.Millisecond, errors.New("closed"))

	rm := collectMetrics(t, reader)

	count := findMetric(rm, "driftnode.dispatch.count")
	require.NotNil(t, count)
	sum, ok := count.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	// Only the failed send lands in the error counter.
	errCount := findMetric(rm, "driftnode.dispatch.errors")
	require.NotNil(t, errCount)
	errSum, ok := errCount.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var errTotal int64
	for _, dp := range errSum.DataPoints {
		errTotal += dp.Value
	}
	assert.Equal(t, int64(1), errTotal)

	bytes := findMetric(rm, "driftnode.dispatch.bytes")
	require.NotNil(t, bytes)
	bytesHist, ok := bytes.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var byteSum int64
	for _, dp := range bytesHist.DataPoints {
		byteSum += dp.Sum
	}
	assert.Equal(t, int64(16), byteSum)
}
