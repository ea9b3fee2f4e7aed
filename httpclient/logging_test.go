package httpclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/facility-client/logger"
)

const (
	msgRequest  = "REST client request"
	msgResponse = "REST client response"
	msgRetry    = "Retrying API call"
)

// logCapture collects zerolog JSON lines written by a real logger.
type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *logCapture) logger() logger.Logger {
	return logger.NewWithWriter(c, "debug", false, nil)
}

func (c *logCapture) raw() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *logCapture) entries(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(c.raw()))
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		out = append(out, entry)
	}
	return out
}

func (c *logCapture) find(t *testing.T, level, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range c.entries(t) {
		if e["level"] == level && e["message"] == msg {
			out = append(out, e)
		}
	}
	return out
}

func TestLogRequestSummary(t *testing.T) {
	capture := &logCapture{}
	c := &client{logger: capture.logger(), config: &Config{MaxPayloadLogBytes: 1024}}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "http://api.local/api/v1/alerts/fire", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+testSessionToken)

	c.logRequest(req, []byte(`{"floor_id":2}`), "req-7")

	infos := capture.find(t, "info", msgRequest)
	require.Len(t, infos, 1)
	assert.Equal(t, "outbound", infos[0]["direction"])
	assert.Equal(t, http.MethodPost, infos[0]["method"])
	assert.Equal(t, "http://api.local/api/v1/alerts/fire", infos[0]["url"])
	assert.Equal(t, "req-7", infos[0]["request_id"])
	assert.EqualValues(t, 2, infos[0]["header_count"])
	assert.EqualValues(t, 14, infos[0]["body_size"])

	assert.Empty(t, capture.find(t, "debug", msgRequest), "payloads are off by default")
}

func TestLogRequestOmitsEmptyBodySize(t *testing.T) {
	capture := &logCapture{}
	c := &client{logger: capture.logger(), config: &Config{}}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://api.local/floors", http.NoBody)
	require.NoError(t, err)
	c.logRequest(req, nil, "req-8")

	infos := capture.find(t, "info", msgRequest)
	require.Len(t, infos, 1)
	assert.NotContains(t, infos[0], "body_size")
	assert.NotContains(t, infos[0], "header_count")
}

func TestLogPayloadPreviewIsTruncatedAndRedacted(t *testing.T) {
	capture := &logCapture{}
	c := &client{logger: capture.logger(), config: &Config{LogPayloads: true, MaxPayloadLogBytes: 8}}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "http://api.local/login", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+testSessionToken)
	req.Header.Set("Cookie", "laravel_session=abc")

	c.logRequest(req, []byte(`{"email":"admin@example.com"}`), "req-9")

	debugs := capture.find(t, "debug", msgRequest)
	require.Len(t, debugs, 1)
	assert.Equal(t, true, debugs[0]["body_truncated"])
	assert.EqualValues(t, 29, debugs[0]["body_size"])

	headers, ok := debugs[0]["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{logger.DefaultMaskValue}, headers["Authorization"])
	assert.Equal(t, []any{logger.DefaultMaskValue}, headers["Cookie"])
	assert.Equal(t, []any{"application/json"}, headers["Accept"])
	assert.NotContains(t, capture.raw(), testSessionToken)
}

func TestLogResponse(t *testing.T) {
	capture := &logCapture{}
	c := &client{logger: capture.logger(), config: &Config{LogPayloads: true}}

	c.logResponse(&Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       []byte(`{"message":"Slow down"}`),
		Headers:    http.Header{"Set-Cookie": {"laravel_session=xyz"}},
		Stats:      Stats{Attempts: 2, CallCount: 5},
	}, "req-10")

	infos := capture.find(t, "info", msgResponse)
	require.Len(t, infos, 1)
	assert.EqualValues(t, 429, infos[0]["status"])
	assert.EqualValues(t, 2, infos[0]["attempt"])
	assert.EqualValues(t, 5, infos[0]["call_count"])

	debugs := capture.find(t, "debug", msgResponse)
	require.Len(t, debugs, 1)
	assert.Equal(t, false, debugs[0]["body_truncated"])
	assert.NotContains(t, capture.raw(), "xyz")
}

func TestRetryAndEvictionAreLoggedAtWarn(t *testing.T) {
	capture := &logCapture{}
	srv := newScriptedServer(t, testFloorsJSON,
		scriptedResponse{status: http.StatusTooManyRequests, headers: map[string]string{"Retry-After": "1"}},
	)
	c := NewBuilder(capture.logger()).
		WithBaseURL(srv.URL + testAPIPrefix).
		WithSleep((&recordingSleep{}).sleep).
		WithSession(newTestSession(t)).
		Build()

	_, err := c.Get(context.Background(), &Request{Path: "/floors"})
	require.NoError(t, err)

	retries := capture.find(t, "warn", msgRetry)
	require.Len(t, retries, 1)
	assert.Equal(t, ReasonRateLimited, retries[0]["reason"])
	assert.EqualValues(t, 1, retries[0]["attempt"])
	assert.EqualValues(t, DefaultMaxRetries, retries[0]["max_retries"])
	assert.Len(t, capture.find(t, "info", msgRequest), 2)
	assert.Len(t, capture.find(t, "info", msgResponse), 2)

	srv2 := newScriptedServer(t, `{}`, scriptedResponse{status: http.StatusUnauthorized})
	c2 := NewBuilder(capture.logger()).WithBaseURL(srv2.URL).WithSession(newTestSession(t)).Build()
	_, err = c2.Get(context.Background(), &Request{Path: "/me"})
	require.Error(t, err)

	var evictions int
	for _, e := range capture.entries(t) {
		if e["level"] == "warn" && e["path"] == "/me" {
			evictions++
		}
	}
	assert.Equal(t, 1, evictions)
	assert.NotContains(t, capture.raw(), testSessionToken)
}

func TestLoginPayloadsAreMaskedInPreviews(t *testing.T) {
	const (
		password = "hunter2pw"
		token    = "42|SECRETTOKEN"
	)
	capture := &logCapture{}
	srv := newScriptedServer(t, `{"token":"`+token+`","user":{"id":1,"name":"Admin"}}`)
	c := NewBuilder(capture.logger()).
		WithBaseURL(srv.URL + testAPIPrefix).
		WithPayloadLogging(true, 4096).
		Build()

	req, err := NewJSONRequest("/login", map[string]string{"email": "admin@example.com", "password": password})
	require.NoError(t, err)
	_, err = c.Post(context.Background(), req)
	require.NoError(t, err)

	out := capture.raw()
	assert.NotContains(t, out, password)
	assert.NotContains(t, out, "SECRETTOKEN")

	sent := capture.find(t, "debug", msgRequest)
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"email":"admin@example.com","password":"***"}`, previewOf(t, sent[0]))

	received := capture.find(t, "debug", msgResponse)
	require.Len(t, received, 1)
	assert.JSONEq(t, `{"token":"***","user":{"id":1,"name":"Admin"}}`, previewOf(t, received[0]))
}

func TestMultipartPayloadsAreNotPreviewed(t *testing.T) {
	capture := &logCapture{}
	c := &client{logger: capture.logger(), config: &Config{LogPayloads: true}}

	form := NewMultipart().AddField("name", "Chen Li").AddField("password", "hunter2pw")
	body, contentType, err := form.Encode()
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "http://api.local/employees/register", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	c.logRequest(req, body, "req-11")

	debugs := capture.find(t, "debug", msgRequest)
	require.Len(t, debugs, 1)
	assert.Equal(t, true, debugs[0]["body_omitted"])
	assert.NotContains(t, debugs[0], "body_preview")
	assert.NotContains(t, capture.raw(), "hunter2pw")
}

// previewOf returns the body preview of a decoded log entry.
func previewOf(t *testing.T, entry map[string]any) string {
	t.Helper()
	preview, ok := entry["body_preview"].(string)
	require.True(t, ok, "body_preview missing")
	return preview
}
