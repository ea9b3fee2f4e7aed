package httpclient

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxRetries is the retry ceiling shared by transport failures and rate limits.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the unit of linear network backoff and the default rate-limit wait.
	DefaultBaseDelay = time.Second
	// MaxRetryAfter is the longest representable wait. Retry-After values
	// beyond it saturate here rather than overflowing.
	MaxRetryAfter = time.Duration(math.MaxInt64)
)

const maxRetryAfterSeconds = int64(MaxRetryAfter / time.Second)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// DefaultSleep blocks on a timer, returning ctx.Err() if the context ends first.
func DefaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Action is what the client does after one dispatch.
type Action int

const (
	Succeed Action = iota
	Retry
	Evict
	Fail
)

func (a Action) String() string {
	switch a {
	case Succeed:
		return "succeed"
	case Retry:
		return "retry"
	case Evict:
		return "evict"
	default:
		return "fail"
	}
}

// Retry reasons reported in logs and metrics.
const (
	ReasonNetwork     = "network"
	ReasonRateLimited = "rate_limited"
)

// Decision is the outcome of classifying one dispatch.
type Decision struct {
	Action Action
	// Reason is set for Retry and for Fail decisions that exhausted the budget.
	Reason string
	// Delay is how long to wait before the next dispatch when Action is Retry.
	Delay time.Duration
}

// RetryPolicy holds the retry budget of a logical call. The zero value
// never retries.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy returns three retries with a one second base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// CanRetry reports whether another dispatch is allowed after attempt (0-based).
func (p RetryPolicy) CanRetry(attempt int) bool {
	return attempt < p.MaxRetries
}

// NetworkDelay is the linear backoff after the given failed attempt:
// BaseDelay, 2*BaseDelay, 3*BaseDelay...
func (p RetryPolicy) NetworkDelay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt+1)
}

// RateLimitDelay returns the Retry-After delay, or BaseDelay when the header
// is absent or unparseable.
func (p RetryPolicy) RateLimitDelay(retryAfter string) time.Duration {
	if d, ok := ParseRetryAfter(retryAfter); ok {
		return d
	}
	return p.BaseDelay
}

// Classify maps a dispatch result to an action without regard to the retry
// budget. err is the transport error, status the response code when err is nil.
func (p RetryPolicy) Classify(err error, status int) Decision {
	if err != nil {
		if IsTransportError(err) {
			return Decision{Action: Retry, Reason: ReasonNetwork}
		}
		return Decision{Action: Fail}
	}
	switch {
	case status == http.StatusUnauthorized:
		return Decision{Action: Evict}
	case status == http.StatusTooManyRequests:
		return Decision{Action: Retry, Reason: ReasonRateLimited}
	case IsSuccessStatus(status):
		return Decision{Action: Succeed}
	default:
		return Decision{Action: Fail}
	}
}

// Decide applies the retry budget to Classify. A retryable result whose
// budget is spent becomes Fail with its Reason preserved.
func (p RetryPolicy) Decide(attempt int, err error, status int, header http.Header) Decision {
	d := p.Classify(err, status)
	if d.Action != Retry {
		return d
	}
	if !p.CanRetry(attempt) {
		d.Action = Fail
		return d
	}
	if d.Reason == ReasonRateLimited {
		d.Delay = p.RateLimitDelay(header.Get("Retry-After"))
	} else {
		d.Delay = p.NetworkDelay(attempt)
	}
	return d
}

// IsTransportError reports whether err came from the network below HTTP
// semantics. Context cancellation is never a transport error.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// ParseRetryAfter parses a Retry-After header given as delta-seconds or as an
// HTTP-date. Fractional seconds round up and huge values saturate at
// MaxRetryAfter.
func ParseRetryAfter(val string) (time.Duration, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, false
		}
		secs = math.Ceil(secs)
		if secs > float64(maxRetryAfterSeconds) {
			return MaxRetryAfter, true
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
