package httpclient

import (
	"context"
	nethttp "net/http"
	"net/url"
	"time"

	facilitytrace "github.com/gaborage/facility-client/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = facilitytrace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = facilitytrace.HeaderTraceParent
)

// Client defines the API client interface. Every method is one logical call:
// retries happen inside and are visible only in Response.Stats.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
}

// Request describes one logical call relative to the configured base URL.
// Body is kept as bytes so every retry resends the identical payload.
type Request struct {
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
	// ContentType defaults to application/json when Body is set.
	ContentType string
	// FailureMessage is used for non-2xx responses whose body has neither
	// "detail" nor "message". Defaults to "Request failed".
	FailureMessage string
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	// ElapsedTime covers the final dispatch only.
	ElapsedTime time.Duration
	// CallCount is the client-wide dispatch counter at the time of the response.
	CallCount int64
	// Attempts is the number of dispatches made for this logical call.
	Attempts int
	// TotalBackoff is the time spent sleeping between attempts.
	TotalBackoff time.Duration
}

// TokenSource supplies the bearer token and clears the session when the API
// rejects it. session.Manager implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Evict(ctx context.Context) error
}

// UnauthorizedHandler is invoked after a 401 cleared the session, with the
// path the caller should navigate to.
type UnauthorizedHandler func(path string)

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the REST client configuration
type Config struct {
	BaseURL              string
	Timeout              time.Duration
	Retry                RetryPolicy
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	DefaultHeaders       map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// RequestIDHeader configures the header name used for request ID propagation (default: X-Request-ID)
	RequestIDHeader string
	// EnableW3CTrace adds a traceparent header derived from the active span
	EnableW3CTrace bool
}

// WithRequestID adds a request ID to the context for propagation
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return facilitytrace.WithRequestID(ctx, requestID)
}

// RequestIDFromContext returns a request ID from context if present
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return facilitytrace.RequestIDFromContext(ctx)
}

// NewRequestIDInterceptor creates a request interceptor that adds the
// X-Request-ID header when the request lacks one.
func NewRequestIDInterceptor() RequestInterceptor {
	return NewRequestIDInterceptorFor(HeaderXRequestID)
}

// NewRequestIDInterceptorFor creates an interceptor that uses a custom header name
func NewRequestIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(header) == "" {
			_, id := facilitytrace.EnsureRequestID(ctx)
			req.Header.Set(header, id)
		}
		return nil
	}
}
