package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyCanRetry(t *testing.T) {
	p := DefaultRetryPolicy()

	for attempt, expected := range []bool{true, true, true, false, false} {
		assert.Equal(t, expected, p.CanRetry(attempt), "attempt %d", attempt)
	}

	assert.False(t, RetryPolicy{}.CanRetry(0), "zero policy never retries")
}

func TestRetryPolicyNetworkDelayIsLinear(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 1*time.Second, p.NetworkDelay(0))
	assert.Equal(t, 2*time.Second, p.NetworkDelay(1))
	assert.Equal(t, 3*time.Second, p.NetworkDelay(2))

	custom := RetryPolicy{MaxRetries: 5, BaseDelay: 250 * time.Millisecond}
	assert.Equal(t, 750*time.Millisecond, custom.NetworkDelay(2))
}

func TestRetryPolicyRateLimitDelay(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		header   string
		expected time.Duration
	}{
		{"2", 2 * time.Second},
		{" 5 ", 5 * time.Second},
		{"0", 0},
		{"0.5", 1 * time.Second},
		{"", time.Second},
		{"soon", time.Second},
		{"-3", time.Second},
		{"10000000000", MaxRetryAfter},
		{"1e12", MaxRetryAfter},
		{"1e300", MaxRetryAfter},
		{"9223372036", 9223372036 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("header_%q", tt.header), func(t *testing.T) {
			assert.Equal(t, tt.expected, p.RateLimitDelay(tt.header))
		})
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	d, ok := ParseRetryAfter(future)
	assert.True(t, ok)
	assert.InDelta(t, 90*time.Second, d, float64(2*time.Second))

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	d, ok = ParseRetryAfter(past)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)
}

func TestRetryPolicyClassify(t *testing.T) {
	p := DefaultRetryPolicy()
	transportErr := &url.Error{Op: "Get", URL: "http://api", Err: errors.New("connection refused")}

	tests := []struct {
		name   string
		err    error
		status int
		action Action
		reason string
	}{
		{"success", nil, 200, Succeed, ""},
		{"created", nil, 201, Succeed, ""},
		{"unauthorized", nil, 401, Evict, ""},
		{"rate limited", nil, 429, Retry, ReasonRateLimited},
		{"server error", nil, 500, Fail, ""},
		{"not found", nil, 404, Fail, ""},
		{"validation", nil, 422, Fail, ""},
		{"transport", transportErr, 0, Retry, ReasonNetwork},
		{"canceled", context.Canceled, 0, Fail, ""},
		{"application error", errors.New("decode failed"), 0, Fail, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Classify(tt.err, tt.status)
			assert.Equal(t, tt.action, d.Action, "got %s", d.Action)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestRetryPolicyDecide(t *testing.T) {
	p := DefaultRetryPolicy()
	transportErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	t.Run("network retry uses linear delay", func(t *testing.T) {
		d := p.Decide(1, transportErr, 0, nil)
		assert.Equal(t, Retry, d.Action)
		assert.Equal(t, 2*time.Second, d.Delay)
	})

	t.Run("rate limit retry honours header", func(t *testing.T) {
		d := p.Decide(0, nil, 429, http.Header{"Retry-After": []string{"7"}})
		assert.Equal(t, Retry, d.Action)
		assert.Equal(t, 7*time.Second, d.Delay)
	})

	t.Run("exhausted budget fails with reason", func(t *testing.T) {
		d := p.Decide(3, nil, 429, nil)
		assert.Equal(t, Fail, d.Action)
		assert.Equal(t, ReasonRateLimited, d.Reason)

		d = p.Decide(3, transportErr, 0, nil)
		assert.Equal(t, Fail, d.Action)
		assert.Equal(t, ReasonNetwork, d.Reason)
	})

	t.Run("401 is never retried", func(t *testing.T) {
		d := p.Decide(0, nil, 401, nil)
		assert.Equal(t, Evict, d.Action)
		assert.Zero(t, d.Delay)
	})
}

func TestIsTransportError(t *testing.T) {
	assert.False(t, IsTransportError(nil))
	assert.False(t, IsTransportError(context.Canceled))
	assert.False(t, IsTransportError(&url.Error{Op: "Get", URL: "x", Err: context.Canceled}))
	assert.False(t, IsTransportError(errors.New("boom")))
	assert.True(t, IsTransportError(&url.Error{Op: "Get", URL: "x", Err: io.EOF}))
	assert.True(t, IsTransportError(&net.DNSError{Err: "no such host", Name: "api"}))
	assert.True(t, IsTransportError(io.ErrUnexpectedEOF))
}

func TestDefaultSleep(t *testing.T) {
	assert.NoError(t, DefaultSleep(context.Background(), 0))
	assert.NoError(t, DefaultSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, DefaultSleep(ctx, time.Hour), context.Canceled)
}
