package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	reasonNetwork     = "network"
	reasonRateLimited = "rate_limited"
)

func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	ResetForTesting()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		ResetForTesting()
	})

	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != clientMeterName {
			continue
		}
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumCounter(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum for %s", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordAttemptAndRetry(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordAttempt(ctx, "GET", 0)
	RecordRetry(ctx, "GET", reasonNetwork)
	RecordAttempt(ctx, "GET", 429)
	RecordRetry(ctx, "GET", reasonRateLimited)
	RecordAttempt(ctx, "GET", 200)

	metrics := collect(t, reader)
	assert.Equal(t, int64(3), sumCounter(t, metrics[metricAttempts]))
	assert.Equal(t, int64(2), sumCounter(t, metrics[metricRetries]))

	sum := metrics[metricRetries].Data.(metricdata.Sum[int64])
	reasons := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, ok := dp.Attributes.Value(attribute.Key(attrReason))
		require.True(t, ok)
		reasons[v.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{reasonNetwork: 1, reasonRateLimited: 1}, reasons)
}

func TestRecordEviction(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordEviction(context.Background())

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumCounter(t, metrics[metricSessionEvictions]))
}

func TestRecordCall(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordCall(ctx, "POST", 1500*time.Millisecond, nil)
	RecordCall(ctx, "POST", 10*time.Millisecond, errors.New("boom"))

	metrics := collect(t, reader)
	hist, ok := metrics[metricCallDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data")
	require.Len(t, hist.DataPoints, 2)

	outcomes := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(attrOutcome))
		outcomes[v.AsString()] += dp.Count
	}
	assert.Equal(t, map[string]uint64{"success": 1, "error": 1}, outcomes)
}

func TestResetForTesting(t *testing.T) {
	setupTestMeterProvider(t)

	RecordEviction(context.Background())
	assert.True(t, IsInitialized())

	ResetForTesting()
	assert.False(t, IsInitialized())
}
