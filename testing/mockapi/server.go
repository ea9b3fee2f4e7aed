// Package mockapi provides an in-process building-management API for tests
// and local development. It serves fixtures and can inject failures.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gaborage/facility-client/logger"
)

// DefaultPrefix is the path prefix of every API route.
const DefaultPrefix = "/api/v1"

const defaultServiceName = "facility-mockapi"

// Option configures a Server.
type Option func(*Server)

// WithFixtures replaces the default dataset.
func WithFixtures(f Fixtures) Option {
	return func(s *Server) { s.data = f.clone() }
}

// WithAuthRequired rejects requests without a valid bearer token, except
// /health and /login.
func WithAuthRequired() Option {
	return func(s *Server) { s.authRequired = true }
}

// WithLogger sets the request logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) { s.logger = log }
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = prefix }
}

// Server is the mock API. All methods are safe for concurrent use.
type Server struct {
	echo         *echo.Echo
	logger       logger.Logger
	validate     *validator.Validate
	prefix       string
	authRequired bool

	mu       sync.Mutex
	data     Fixtures
	tokens   map[string]User
	presence map[int][]Person
	faults   []Fault
	requests []RecordedRequest
}

// New builds a Server with DefaultFixtures unless overridden.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		logger:   logger.Nop(),
		prefix:   DefaultPrefix,
		data:     DefaultFixtures(),
		tokens:   make(map[string]User),
		presence: make(map[int][]Person),
	}
	for _, opt := range opts {
		opt(s)
	}

	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	s.validate = v

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(defaultServiceName))
	e.Use(s.recordRequests())
	e.Use(s.logRequests())
	e.Use(s.injectFaults())
	e.Use(s.authenticate())
	e.Use(middleware.BodyLimit("12M"))

	s.echo = e
	s.registerRoutes(e.Group(s.prefix))
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("address", addr).Str("prefix", s.prefix).Msg("Mock building API listening")
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// TestServer is a Server bound to an httptest listener.
type TestServer struct {
	*Server
	HTTP *httptest.Server
}

// BaseURL is the API root including the prefix.
func (ts *TestServer) BaseURL() string {
	return ts.HTTP.URL + ts.prefix
}

// NewTestServer starts a Server on a loopback port and closes it when the
// test ends.
func NewTestServer(t testing.TB, opts ...Option) *TestServer {
	t.Helper()
	s, err := New(opts...)
	if err != nil {
		t.Fatalf("mockapi: %v", err)
	}
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return &TestServer{Server: s, HTTP: hs}
}

func (s *Server) logRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			s.logger.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("Mock API request")
			return nil
		}
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Server Error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	_ = c.JSON(status, map[string]string{"message": msg})
}
