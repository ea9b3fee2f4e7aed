package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies client failures.
type ErrorType string

const (
	NetworkError      ErrorType = "network"
	TimeoutError      ErrorType = "timeout"
	HTTPError         ErrorType = "http"
	UnauthorizedError ErrorType = "unauthorized"
	RateLimitedError  ErrorType = "rate_limited"
	ValidationError   ErrorType = "validation"
	InterceptorError  ErrorType = "interceptor"
)

// ClientError is implemented by every error the client returns for a failed
// call, except context cancellation which is returned unwrapped.
type ClientError interface {
	error
	Type() ErrorType
	// Message is the human-readable text suitable for display.
	Message() string
}

type networkError struct {
	message string
	err     error
}

// NewNetworkError creates a transport-level failure.
func NewNetworkError(message string, err error) ClientError {
	return &networkError{message: message, err: err}
}

func (e *networkError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.err)
	}
	return "network error: " + e.message
}

func (e *networkError) Type() ErrorType { return NetworkError }
func (e *networkError) Message() string { return e.message }
func (e *networkError) Unwrap() error { return e.err }

type timeoutError struct {
	message string
	timeout time.Duration
	err     error
}

// NewTimeoutError creates an error for a dispatch that exceeded the transport
// timeout. err is the transport error that reported the deadline.
func NewTimeoutError(message string, timeout time.Duration, err error) ClientError {
	return &timeoutError{message: message, timeout: timeout, err: err}
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (after %s)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType { return TimeoutError }
func (e *timeoutError) Message() string { return e.message }
func (e *timeoutError) Unwrap() error { return e.err }

type httpError struct {
	message    string
	statusCode int
	body       []byte
}

// NewHTTPError creates an application failure for a non-2xx response.
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{message: message, statusCode: statusCode, body: body}
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.statusCode, e.message)
}

func (e *httpError) Type() ErrorType { return HTTPError }
func (e *httpError) Message() string { return e.message }
func (e *httpError) StatusCode() int { return e.statusCode }
func (e *httpError) Body() []byte { return e.body }

type unauthorizedError struct {
	message string
}

// NewUnauthorizedError creates the error returned after a 401 evicted the session.
func NewUnauthorizedError(message string) ClientError {
	return &unauthorizedError{message: message}
}

func (e *unauthorizedError) Error() string { return "unauthorized: " + e.message }
func (e *unauthorizedError) Type() ErrorType { return UnauthorizedError }
func (e *unauthorizedError) Message() string { return e.message }
func (e *unauthorizedError) StatusCode() int { return 401 }

type rateLimitedError struct {
	message    string
	retryAfter time.Duration
	body       []byte
}

// NewRateLimitedError creates the error returned when 429 responses outlast
// the retry budget. retryAfter is the last server-directed delay, or zero.
func NewRateLimitedError(message string, retryAfter time.Duration, body []byte) ClientError {
	return &rateLimitedError{message: message, retryAfter: retryAfter, body: body}
}

func (e *rateLimitedError) Error() string {
	if e.retryAfter > 0 {
		return fmt.Sprintf("rate limited: %s (retry after %s)", e.message, e.retryAfter)
	}
	return "rate limited: " + e.message
}

func (e *rateLimitedError) Type() ErrorType { return RateLimitedError }
func (e *rateLimitedError) Message() string { return e.message }
func (e *rateLimitedError) StatusCode() int { return 429 }
func (e *rateLimitedError) Body() []byte { return e.body }
func (e *rateLimitedError) RetryAfter() time.Duration { return e.retryAfter }

type validationError struct {
	message string
	field   string
}

// NewValidationError creates an error for a request that could not be built.
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return "validation error: " + e.message
}

func (e *validationError) Type() ErrorType { return ValidationError }
func (e *validationError) Message() string { return e.message }

type interceptorError struct {
	message string
	stage   string
	err     error
}

// NewInterceptorError wraps a failure raised by a request or response interceptor.
func NewInterceptorError(message, stage string, err error) ClientError {
	return &interceptorError{message: message, stage: stage, err: err}
}

func (e *interceptorError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("interceptor error in %s stage: %s: %v", e.stage, e.message, e.err)
	}
	return fmt.Sprintf("interceptor error in %s stage: %s", e.stage, e.message)
}

func (e *interceptorError) Type() ErrorType { return InterceptorError }
func (e *interceptorError) Message() string { return e.message }
func (e *interceptorError) Unwrap() error { return e.err }

// IsErrorType reports whether err, or any error it wraps, is a ClientError of type t.
func IsErrorType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(ClientError); ok && ce.Type() == t {
			return true
		}
	}
	return false
}

// IsHTTPStatusError reports whether err carries the given response status.
func IsHTTPStatusError(err error, statusCode int) bool {
	var sc interface{ StatusCode() int }
	if !errors.As(err, &sc) {
		return false
	}
	return sc.StatusCode() == statusCode
}

// IsUnauthorized reports whether the call failed because the session was rejected.
func IsUnauthorized(err error) bool {
	return IsErrorType(err, UnauthorizedError)
}

// IsRateLimited reports whether the call exhausted its retries on 429 responses.
func IsRateLimited(err error) bool {
	return IsErrorType(err, RateLimitedError)
}

// RetryAfterFrom returns the server-directed delay carried by a rate-limit error.
func RetryAfterFrom(err error) (time.Duration, bool) {
	var rl *rateLimitedError
	if !errors.As(err, &rl) || rl.retryAfter <= 0 {
		return 0, false
	}
	return rl.retryAfter, true
}

// MessageOf returns the display message of a ClientError, or err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Message()
	}
	return err.Error()
}

// IsSuccessStatus reports whether code is in the 2xx range.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
