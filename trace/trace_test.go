package trace

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var traceParentPattern = regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-0[01]$`)

func TestHeaderConstants(t *testing.T) {
	assert.Equal(t, "X-Request-ID", HeaderXRequestID)
	assert.Equal(t, "traceparent", HeaderTraceParent)
}

func TestEnsureRequestIDUsesExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "existing-request-id")
	ctx2, got := EnsureRequestID(ctx)
	assert.Equal(t, "existing-request-id", got)
	assert.Equal(t, ctx, ctx2)
}

func TestEnsureRequestIDGeneratesAndStores(t *testing.T) {
	ctx, got := EnsureRequestID(context.Background())
	assert.Regexp(t, `^[a-f0-9\-]{36}$`, got)

	stored, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, got, stored)

	// A second call on the derived context must not regenerate
	_, again := EnsureRequestID(ctx)
	assert.Equal(t, got, again)
}

func TestRequestIDFromContextIgnoresEmpty(t *testing.T) {
	_, ok := RequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
}

func TestTraceParentFromActiveSpan(t *testing.T) {
	traceID, err := oteltrace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := oteltrace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: oteltrace.FlagsSampled,
	})
	ctx := oteltrace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", TraceParent(ctx))
}

func TestTraceParentUnsampledSpan(t *testing.T) {
	traceID, _ := oteltrace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := oteltrace.SpanIDFromHex("00f067aa0ba902b7")
	sc := oteltrace.NewSpanContext(oteltrace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := oteltrace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00", TraceParent(ctx))
}

func TestTraceParentWithoutSpanGenerates(t *testing.T) {
	tp := TraceParent(context.Background())
	assert.Regexp(t, traceParentPattern, tp)
}

func TestGenerateTraceParentIsRandom(t *testing.T) {
	a := GenerateTraceParent()
	b := GenerateTraceParent()
	assert.Regexp(t, traceParentPattern, a)
	assert.NotEqual(t, a, b)
}
