package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	nethttp "net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/gaborage/facility-client/config"
	"github.com/gaborage/facility-client/httpclient/internal/tracking"
	"github.com/gaborage/facility-client/logger"
	facilitytrace "github.com/gaborage/facility-client/trace"
)

const (
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestedWith = "X-Requested-With"
	headerRetryAfter    = "Retry-After"

	contentTypeJSON = "application/json"

	defaultFailureMessage = "Request failed"
	unauthorizedMessage   = "Unauthorized"
	// unauthorizedRedirect is where callers are sent after the session is cleared.
	unauthorizedRedirect = "/"
)

type client struct {
	httpClient     *nethttp.Client
	config         *Config
	logger         logger.Logger
	session        TokenSource
	onUnauthorized UnauthorizedHandler
	sleep          SleepFunc
	limiter        *rate.Limiter
	callCount      atomic.Int64
}

// Builder assembles a Client. Zero configuration yields three retries with a
// one second base delay, a 30s transport timeout, a cookie jar and otelhttp
// instrumentation.
type Builder struct {
	config         *Config
	logger         logger.Logger
	transport      nethttp.RoundTripper
	jar            nethttp.CookieJar
	session        TokenSource
	onUnauthorized UnauthorizedHandler
	sleep          SleepFunc
	limiter        *rate.Limiter
}

// NewBuilder creates a builder with default settings.
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		logger: log,
		config: &Config{
			BaseURL:            config.DefaultBaseURL,
			Timeout:            30 * time.Second,
			Retry:              DefaultRetryPolicy(),
			MaxPayloadLogBytes: defaultMaxPayloadLogBytes,
			RequestIDHeader:    HeaderXRequestID,
			DefaultHeaders: map[string]string{
				headerAccept:        contentTypeJSON,
				headerRequestedWith: "XMLHttpRequest",
			},
		},
	}
}

// FromConfig applies the api section of the client configuration.
func (b *Builder) FromConfig(api config.APIConfig) *Builder {
	if api.BaseURL != "" {
		b.config.BaseURL = api.BaseURL
	}
	if api.Timeout > 0 {
		b.config.Timeout = api.Timeout
	}
	b.config.Retry = RetryPolicy{MaxRetries: api.Retry.Max, BaseDelay: api.Retry.BaseDelay}
	b.config.LogPayloads = api.LogPayloads
	if api.MaxPayloadLogBytes > 0 {
		b.config.MaxPayloadLogBytes = api.MaxPayloadLogBytes
	}
	return b.WithRateLimit(api.Rate.Limit, api.Rate.Burst)
}

func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry ceiling and the base delay.
func (b *Builder) WithRetries(maxRetries int, baseDelay time.Duration) *Builder {
	b.config.Retry = RetryPolicy{MaxRetries: maxRetries, BaseDelay: baseDelay}
	return b
}

// WithSession attaches the token source read before each dispatch and
// cleared on 401.
func (b *Builder) WithSession(s TokenSource) *Builder {
	b.session = s
	return b
}

// WithUnauthorizedHandler registers the navigation callback run after a 401.
func (b *Builder) WithUnauthorizedHandler(h UnauthorizedHandler) *Builder {
	b.onUnauthorized = h
	return b
}

// WithSleep replaces the backoff sleeper. Tests use it to avoid real waits.
func (b *Builder) WithSleep(sleep SleepFunc) *Builder {
	b.sleep = sleep
	return b
}

// WithRateLimit throttles dispatches to rps per second. rps <= 0 disables it.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	if rps <= 0 {
		b.limiter = nil
		return b
	}
	if burst < 1 {
		burst = 1
	}
	b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug logging of headers and body previews.
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithRequestIDHeader changes the header that carries the request ID.
func (b *Builder) WithRequestIDHeader(header string) *Builder {
	if header != "" {
		b.config.RequestIDHeader = header
	}
	return b
}

// WithW3CTrace enables traceparent propagation.
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithTransport replaces the base round tripper. It is still wrapped by otelhttp.
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithCookieJar replaces the default in-memory jar.
func (b *Builder) WithCookieJar(jar nethttp.CookieJar) *Builder {
	b.jar = jar
	return b
}

// Build creates the client.
func (b *Builder) Build() Client {
	cfg := *b.config
	cfg.DefaultHeaders = maps.Clone(b.config.DefaultHeaders)

	base := b.transport
	if base == nil {
		base = nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	}
	jar := b.jar
	if jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList option
		jar, _ = cookiejar.New(nil)
	}
	sleep := b.sleep
	if sleep == nil {
		sleep = DefaultSleep
	}

	return &client{
		httpClient: &nethttp.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
			Jar:       jar,
		},
		config:         &cfg,
		logger:         b.logger,
		session:        b.session,
		onUnauthorized: b.onUnauthorized,
		sleep:          sleep,
		limiter:        b.limiter,
	}
}

func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do executes one logical call. Transport failures and 429 responses are
// retried within the shared budget; a 401 clears the session and is never
// retried; any other non-2xx fails immediately.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request is required", "request")
	}
	if method == "" {
		method = nethttp.MethodGet
	}

	ctx, requestID := facilitytrace.EnsureRequestID(ctx)
	start := time.Now()
	resp, err := c.execute(ctx, method, req, requestID)
	tracking.RecordCall(ctx, method, time.Since(start), err)
	return resp, err
}

func (c *client) execute(ctx context.Context, method string, req *Request, requestID string) (*Response, error) {
	target, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	policy := c.config.Retry
	var backoff time.Duration

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		httpReq, err := c.newRequest(ctx, method, target, req, requestID)
		if err != nil {
			return nil, err
		}

		resp, raw, err := c.dispatch(ctx, httpReq, req.Body, requestID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			d := policy.Decide(attempt, err, 0, nil)
			if d.Action != Retry {
				if d.Reason == "" {
					return nil, err
				}
				return nil, c.transportError(err)
			}
			if err := c.backoff(ctx, method, req.Path, requestID, attempt, d, err); err != nil {
				return nil, err
			}
			backoff = addBackoff(backoff, d.Delay)
			continue
		}

		resp.Stats.Attempts = attempt + 1
		resp.Stats.TotalBackoff = backoff
		c.logResponse(resp, requestID)

		// A rejected session is cleared even when an interceptor fails on the 401.
		d := policy.Decide(attempt, nil, resp.StatusCode, resp.Headers)
		icErr := c.runResponseInterceptors(ctx, httpReq, raw)
		if d.Action == Evict {
			if icErr != nil {
				c.logger.Warn().
					Str("path", req.Path).
					Str("request_id", requestID).
					Err(icErr).
					Msg("Response interceptor failed on unauthorized response")
			}
			return nil, c.evict(ctx, req.Path, requestID)
		}
		if icErr != nil {
			return nil, icErr
		}

		switch d.Action {
		case Succeed:
			return resp, nil
		case Retry:
			if err := c.backoff(ctx, method, req.Path, requestID, attempt, d, nil); err != nil {
				return nil, err
			}
			backoff = addBackoff(backoff, d.Delay)
		default:
			msg := ErrorMessage(resp.Body, req.failureMessage())
			if d.Reason == ReasonRateLimited {
				retryAfter, _ := ParseRetryAfter(resp.Headers.Get(headerRetryAfter))
				return nil, NewRateLimitedError(msg, retryAfter, resp.Body)
			}
			return nil, NewHTTPError(msg, resp.StatusCode, resp.Body)
		}
	}
}

// dispatch sends one attempt and reads the whole body. The returned raw
// response carries a rewound copy of the body for response interceptors.
func (c *client) dispatch(ctx context.Context, httpReq *nethttp.Request, body []byte, requestID string) (*Response, *nethttp.Response, error) {
	c.logRequest(httpReq, body, requestID)
	count := c.callCount.Add(1)
	start := time.Now()

	raw, err := c.httpClient.Do(httpReq)
	if err != nil {
		tracking.RecordAttempt(ctx, httpReq.Method, 0)
		return nil, nil, err
	}
	defer raw.Body.Close()

	data, err := io.ReadAll(raw.Body)
	tracking.RecordAttempt(ctx, httpReq.Method, raw.StatusCode)
	if err != nil {
		return nil, nil, err
	}
	raw.Body = io.NopCloser(bytes.NewReader(data))

	return &Response{
		StatusCode: raw.StatusCode,
		Body:       data,
		Headers:    raw.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   count,
		},
	}, raw, nil
}

// addBackoff sums waits, saturating at MaxRetryAfter.
func addBackoff(total, d time.Duration) time.Duration {
	if d > MaxRetryAfter-total {
		return MaxRetryAfter
	}
	return total + d
}

func (c *client) backoff(ctx context.Context, method, path, requestID string, attempt int, d Decision, cause error) error {
	c.logRetry(method, path, requestID, attempt, d, cause)
	tracking.RecordRetry(ctx, method, d.Reason)
	return c.sleep(ctx, d.Delay)
}

func (c *client) evict(ctx context.Context, path, requestID string) error {
	var evictErr error
	if c.session != nil {
		evictErr = c.session.Evict(ctx)
	}
	tracking.RecordEviction(ctx)
	c.logEviction(path, requestID, evictErr)
	if c.onUnauthorized != nil {
		c.onUnauthorized(unauthorizedRedirect)
	}
	return NewUnauthorizedError(unauthorizedMessage)
}

func (c *client) transportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("request timed out", c.config.Timeout, err)
	}
	return NewNetworkError("request failed", err)
}

func (c *client) resolveURL(req *Request) (string, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		base := strings.TrimRight(c.config.BaseURL, "/")
		if target != "" && !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = base + target
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", NewValidationError(fmt.Sprintf("invalid request URL %q", target), "path")
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *client) newRequest(ctx context.Context, method, target string, req *Request, requestID string) (*nethttp.Request, error) {
	var body io.Reader = nethttp.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("cannot build request: %v", err), "method")
	}

	for k, v := range c.config.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	if len(req.Body) > 0 {
		ct := req.ContentType
		if ct == "" {
			ct = contentTypeJSON
		}
		httpReq.Header.Set(headerContentType, ct)
	}

	if c.session != nil {
		token, err := c.session.Token(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("request_id", requestID).Msg("Cannot read session token, sending request anonymously")
		} else if token != "" {
			httpReq.Header.Set(headerAuthorization, "Bearer "+token)
		}
	}

	// Caller headers take precedence
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if httpReq.Header.Get(c.config.RequestIDHeader) == "" {
		httpReq.Header.Set(c.config.RequestIDHeader, requestID)
	}
	if c.config.EnableW3CTrace && httpReq.Header.Get(HeaderTraceParent) == "" {
		httpReq.Header.Set(HeaderTraceParent, facilitytrace.TraceParent(ctx))
	}

	for _, interceptor := range c.config.RequestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, NewInterceptorError("request interceptor failed", "request", err)
		}
	}
	return httpReq, nil
}

func (c *client) runResponseInterceptors(ctx context.Context, httpReq *nethttp.Request, raw *nethttp.Response) error {
	for _, interceptor := range c.config.ResponseInterceptors {
		if err := interceptor(ctx, httpReq, raw); err != nil {
			return NewInterceptorError("response interceptor failed", "response", err)
		}
	}
	return nil
}

func (r *Request) failureMessage() string {
	if r.FailureMessage != "" {
		return r.FailureMessage
	}
	return defaultFailureMessage
}
