package mockapi

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Fault is a canned failure served instead of the real handler. Faults are
// consumed in queue order by the first request whose path matches.
type Fault struct {
	// Path relative to the API prefix; empty matches any request.
	Path string
	// Status and Body describe the response. Ignored when Drop is set.
	Status     int
	Body       any
	RetryAfter string
	// Drop hijacks the connection and closes it without a response.
	Drop bool
}

// RecordedRequest is a request observed by the mock.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// QueueFault appends f to the fault queue.
func (s *Server) QueueFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, f)
}

// QueueStatus makes the next request to path fail with status.
func (s *Server) QueueStatus(path string, status int, message string) {
	var body any
	if message != "" {
		body = map[string]string{"message": message}
	}
	s.QueueFault(Fault{Path: path, Status: status, Body: body})
}

// QueueRateLimit makes the next request to path fail with 429.
func (s *Server) QueueRateLimit(path, retryAfter string) {
	s.QueueFault(Fault{
		Path:       path,
		Status:     http.StatusTooManyRequests,
		Body:       map[string]string{"message": "Too Many Attempts."},
		RetryAfter: retryAfter,
	})
}

// QueueDrop makes the next request to path lose its connection.
func (s *Server) QueueDrop(path string) {
	s.QueueFault(Fault{Path: path, Drop: true})
}

// PendingFaults returns the number of queued faults not yet served.
func (s *Server) PendingFaults() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faults)
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo returns the recorded requests for one path.
func (s *Server) RequestsTo(path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// ResetRecording clears recorded requests and queued faults.
func (s *Server) ResetRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.faults = nil
}

func (s *Server) relativePath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, s.prefix)
}

func (s *Server) nextFault(path string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.Path == "" || f.Path == path {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}

// recordRequests stores every request, then restores the body for handlers.
func (s *Server) recordRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))
			}
			s.mu.Lock()
			s.requests = append(s.requests, RecordedRequest{
				Method:  req.Method,
				Path:    s.relativePath(req),
				Query:   req.URL.RawQuery,
				Headers: req.Header.Clone(),
				Body:    body,
			})
			s.mu.Unlock()
			return next(c)
		}
	}
}

func (s *Server) injectFaults() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			f, ok := s.nextFault(s.relativePath(c.Request()))
			if !ok {
				return next(c)
			}
			if f.Drop {
				return dropConnection(c)
			}
			if f.RetryAfter != "" {
				c.Response().Header().Set("Retry-After", f.RetryAfter)
			}
			if f.Body == nil {
				return c.NoContent(f.Status)
			}
			return c.JSON(f.Status, f.Body)
		}
	}
}

func dropConnection(c echo.Context) error {
	conn, _, err := http.NewResponseController(c.Response().Writer).Hijack()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "connection cannot be hijacked")
	}
	return conn.Close()
}
