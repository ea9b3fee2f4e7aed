package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientErrorRendering(t *testing.T) {
	tests := []struct {
		name    string
		err     ClientError
		kind    ErrorType
		text    string
		message string
	}{
		{
			name:    "network with cause",
			err:     NewNetworkError("POST /employees/register", io.ErrUnexpectedEOF),
			kind:    NetworkError,
			text:    "network error: POST /employees/register: unexpected EOF",
			message: "POST /employees/register",
		},
		{
			name:    "network without cause",
			err:     NewNetworkError("API unreachable", nil),
			kind:    NetworkError,
			text:    "network error: API unreachable",
			message: "API unreachable",
		},
		{
			name:    "timeout",
			err:     NewTimeoutError("GET /floors", 30*time.Second, context.DeadlineExceeded),
			kind:    TimeoutError,
			text:    "timeout error: GET /floors (after 30s)",
			message: "GET /floors",
		},
		{
			name:    "http",
			err:     NewHTTPError("Camera not found", 404, nil),
			kind:    HTTPError,
			text:    "HTTP error 404: Camera not found",
			message: "Camera not found",
		},
		{
			name:    "unauthorized",
			err:     NewUnauthorizedError("Unauthorized"),
			kind:    UnauthorizedError,
			text:    "unauthorized: Unauthorized",
			message: "Unauthorized",
		},
		{
			name:    "rate limited with delay",
			err:     NewRateLimitedError("Too Many Attempts.", 2*time.Second, nil),
			kind:    RateLimitedError,
			text:    "rate limited: Too Many Attempts. (retry after 2s)",
			message: "Too Many Attempts.",
		},
		{
			name:    "validation with field",
			err:     NewValidationError("unsupported photo type", "photo"),
			kind:    ValidationError,
			text:    "validation error: unsupported photo type (field: photo)",
			message: "unsupported photo type",
		},
		{
			name:    "interceptor",
			err:     NewInterceptorError("session lookup failed", "request", errors.New("store closed")),
			kind:    InterceptorError,
			text:    "interceptor error in request stage: session lookup failed: store closed",
			message: "session lookup failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Type())
			assert.Equal(t, tt.text, tt.err.Error())
			assert.Equal(t, tt.message, tt.err.Message())
			assert.True(t, IsErrorType(tt.err, tt.kind))
			assert.Equal(t, tt.message, MessageOf(fmt.Errorf("list floors: %w", tt.err)))
		})
	}
}

func TestErrorCausesUnwrap(t *testing.T) {
	netErr := NewNetworkError("GET /cameras", io.EOF)
	assert.ErrorIs(t, netErr, io.EOF)

	cause := errors.New("store closed")
	icErr := NewInterceptorError("session lookup failed", "request", cause)
	assert.ErrorIs(t, icErr, cause)

	assert.Nil(t, errors.Unwrap(NewNetworkError("offline", nil)))

	urlErr := &url.Error{Op: "Get", URL: "http://api.local/floors", Err: context.DeadlineExceeded}
	timeoutErr := NewTimeoutError("request timed out", 30*time.Second, urlErr)
	var got *url.Error
	require.ErrorAs(t, timeoutErr, &got)
	assert.Same(t, urlErr, got)
	assert.ErrorIs(t, timeoutErr, context.DeadlineExceeded)
}

func TestStatusCarryingErrors(t *testing.T) {
	body := []byte(`{"message":"The photo field is required."}`)
	httpErr := NewHTTPError("The photo field is required.", 422, body)

	wrapped := fmt.Errorf("register employee: %w", httpErr)
	assert.True(t, IsHTTPStatusError(wrapped, 422))
	assert.False(t, IsHTTPStatusError(wrapped, 500))

	var withBody interface{ Body() []byte }
	require.ErrorAs(t, wrapped, &withBody)
	assert.Equal(t, body, withBody.Body())

	assert.True(t, IsHTTPStatusError(NewUnauthorizedError("Unauthorized"), 401))
	assert.True(t, IsHTTPStatusError(NewRateLimitedError("slow down", 0, nil), 429))
	assert.False(t, IsHTTPStatusError(NewNetworkError("offline", nil), 0))
	assert.False(t, IsHTTPStatusError(nil, 200))
}

func TestSessionAndRateLimitHelpers(t *testing.T) {
	unauthorized := fmt.Errorf("current user: %w", NewUnauthorizedError("Unauthorized"))
	assert.True(t, IsUnauthorized(unauthorized))
	assert.False(t, IsRateLimited(unauthorized))

	limited := NewRateLimitedError("Too Many Attempts.", 5*time.Second, nil)
	assert.True(t, IsRateLimited(limited))
	d, ok := RetryAfterFrom(fmt.Errorf("alerts: %w", limited))
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	_, ok = RetryAfterFrom(NewRateLimitedError("Too Many Attempts.", 0, nil))
	assert.False(t, ok)
	_, ok = RetryAfterFrom(NewHTTPError("boom", 500, nil))
	assert.False(t, ok)
}

func TestMessageOfPlainErrors(t *testing.T) {
	assert.Empty(t, MessageOf(nil))
	assert.Equal(t, "context canceled", MessageOf(context.Canceled))
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(context.Canceled, NetworkError))
}

func TestIsSuccessStatus(t *testing.T) {
	for code, want := range map[int]bool{199: false, 200: true, 201: true, 204: true, 299: true, 300: false, 401: false, 429: false} {
		assert.Equal(t, want, IsSuccessStatus(code), "status %d", code)
	}
}
