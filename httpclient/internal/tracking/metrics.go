package tracking

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for API client instrumentation
	clientMeterName = "facility-client/httpclient"

	metricCallDuration     = "http.client.call.duration"     // Histogram in seconds, one per logical call
	metricAttempts         = "http.client.attempts"          // Counter, one per dispatch
	metricRetries          = "http.client.retries"           // Counter, one per scheduled retry
	metricSessionEvictions = "http.client.session.evictions" // Counter

	attrMethod     = "http.request.method"
	attrStatusCode = "http.response.status_code"
	attrOutcome    = "outcome"
	attrReason     = "retry.reason"
)

var (
	clientMeter   metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	callDuration     metric.Float64Histogram
	attemptCounter   metric.Int64Counter
	retryCounter     metric.Int64Counter
	evictionsCounter metric.Int64Counter
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize http client metric %s: %v\n", metricName, err)
	}
}

func initClientMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if clientMeter != nil {
		return
	}

	clientMeter = otel.Meter(clientMeterName)

	var err error

	callDuration, err = clientMeter.Float64Histogram(
		metricCallDuration,
		metric.WithDescription("Duration of logical API calls including retries and backoff"),
		metric.WithUnit("s"),
	)
	logMetricError(metricCallDuration, err)

	attemptCounter, err = clientMeter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP dispatch attempts"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	retryCounter, err = clientMeter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retries scheduled after a transport failure or rate limit"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	evictionsCounter, err = clientMeter.Int64Counter(
		metricSessionEvictions,
		metric.WithDescription("Number of sessions cleared after an unauthorized response"),
		metric.WithUnit("{eviction}"),
	)
	logMetricError(metricSessionEvictions, err)

	metricsInited = true
}

func ensureMeterInitialized() {
	meterOnce.Do(initClientMeter)
}

// RecordAttempt counts one dispatch. status is 0 when the transport failed.
func RecordAttempt(ctx context.Context, method string, status int) {
	ensureMeterInitialized()
	if attemptCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(attrMethod, method)}
	if status > 0 {
		attrs = append(attrs, attribute.String(attrStatusCode, strconv.Itoa(status)))
	}
	attemptCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRetry counts a scheduled retry with its reason.
func RecordRetry(ctx context.Context, method, reason string) {
	ensureMeterInitialized()
	if retryCounter == nil {
		return
	}
	retryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrReason, reason),
	))
}

// RecordEviction counts a session wipe caused by a 401.
func RecordEviction(ctx context.Context) {
	ensureMeterInitialized()
	if evictionsCounter != nil {
		evictionsCounter.Add(ctx, 1)
	}
}

// RecordCall records the duration of a logical call, from first dispatch to
// final outcome.
//
// Parameters:
//   - method: HTTP method
//   - duration: wall time including backoff sleeps
//   - err: final error, nil on success
func RecordCall(ctx context.Context, method string, duration time.Duration, err error) {
	ensureMeterInitialized()
	if callDuration == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	))
}

// IsInitialized returns true if client metrics have been initialized.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	clientMeter = nil
	callDuration = nil
	attemptCounter = nil
	retryCounter = nil
	evictionsCounter = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
