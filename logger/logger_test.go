package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBearer  = "Bearer abc.def.ghi"
	testMessage = "REST client request"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line, "expected a log line")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &out))
	return out
}

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logDebug  bool
		wantEmpty bool
	}{
		{name: "info level drops debug", level: "info", logDebug: true, wantEmpty: true},
		{name: "debug level keeps debug", level: "debug", logDebug: true, wantEmpty: false},
		{name: "invalid level falls back to info", level: "loud", logDebug: false, wantEmpty: false},
		{name: "empty level falls back to info", level: "", logDebug: true, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, tt.level, false, nil)
			if tt.logDebug {
				log.Debug().Msg("debug line")
			} else {
				log.Info().Msg("info line")
			}
			assert.Equal(t, tt.wantEmpty, buf.Len() == 0)
		})
	}
}

func TestEventFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", false, nil)

	log.Info().
		Str("method", "GET").
		Int("attempt", 2).
		Int64("call_count", 5).
		Bool("retried", true).
		Dur("elapsed", 250*time.Millisecond).
		Err(errors.New("boom")).
		Msg(testMessage)

	out := decodeLine(t, &buf)
	assert.Equal(t, testMessage, out["message"])
	assert.Equal(t, "GET", out["method"])
	assert.Equal(t, float64(2), out["attempt"])
	assert.Equal(t, float64(5), out["call_count"])
	assert.Equal(t, true, out["retried"])
	assert.Equal(t, "boom", out["error"])
	assert.Contains(t, out, "caller")
	assert.Contains(t, out, "time")
}

func TestSensitiveStringsAreMasked(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, nil)

	log.Info().Str("authorization", testBearer).Str("url", "/floors").Msg("masked")

	out := decodeLine(t, &buf)
	assert.Equal(t, DefaultMaskValue, out["authorization"])
	assert.Equal(t, "/floors", out["url"])
}

func TestHeadersAreMasked(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, nil)

	h := http.Header{}
	h.Set("Authorization", testBearer)
	h.Set("Cookie", "laravel_session=xyz")
	h.Set("Accept", "application/json")

	log.Info().Interface("headers", h).Msg("headers")

	out := decodeLine(t, &buf)
	headers, ok := out["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{DefaultMaskValue}, headers["Authorization"])
	assert.Equal(t, []any{DefaultMaskValue}, headers["Cookie"])
	assert.Equal(t, []any{"application/json"}, headers["Accept"])

	// Original header must not be mutated
	assert.Equal(t, testBearer, h.Get("Authorization"))
}

func TestWithFiltersSensitiveValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, nil)

	child := log.With(map[string]any{
		"service": "facility-client",
		"token":   "secret-token",
		"nested":  map[string]any{"password": "hunter2", "floor": 2},
	})
	child.Info().Msg("with fields")

	out := decodeLine(t, &buf)
	assert.Equal(t, "facility-client", out["service"])
	assert.Equal(t, DefaultMaskValue, out["token"])
	nested, ok := out["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultMaskValue, nested["password"])
	assert.Equal(t, float64(2), nested["floor"])
}

func TestCustomFilterConfig(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, &FilterConfig{SensitiveFields: []string{"email"}, MaskValue: "[redacted]"})

	log.Info().Str("email", "jane@example.com").Str("token", "visible").Msg("custom")

	out := decodeLine(t, &buf)
	assert.Equal(t, "[redacted]", out["email"])
	assert.Equal(t, "visible", out["token"])
}

func TestFilterValueDepthLimit(t *testing.T) {
	f := NewSensitiveDataFilter(nil)

	deep := map[string]any{"password": "x"}
	for range DefaultMaxDepth + 2 {
		deep = map[string]any{"level": deep}
	}

	out := f.FilterValue("root", deep)
	for range DefaultMaxDepth {
		m, ok := out.(map[string]any)
		require.True(t, ok)
		out = m["level"]
	}
	assert.Equal(t, DefaultMaskValue, out, "containers past the depth limit are masked whole")
}

func TestFilterJSON(t *testing.T) {
	f := NewSensitiveDataFilter(nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "login request",
			body: `{"email":"admin@example.com","password":"hunter2pw"}`,
			want: `{"email":"admin@example.com","password":"***"}`,
		},
		{
			name: "login response with nested user",
			body: `{"token":"42|SECRETTOKEN","user":{"id":1,"remember_token":"abc"}}`,
			want: `{"token":"***","user":{"id":1,"remember_token":"***"}}`,
		},
		{
			name: "array of objects",
			body: `[{"name":"Lobby","api_key":"k"},{"name":"Roof"}]`,
			want: `[{"name":"Lobby","api_key":"***"},{"name":"Roof"}]`,
		},
		{
			name: "scalar document",
			body: `"ok"`,
			want: `"ok"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked, ok := f.FilterJSON([]byte(tt.body))
			require.True(t, ok)
			assert.JSONEq(t, tt.want, string(masked))
		})
	}

	_, ok := f.FilterJSON([]byte("--boundary\r\nContent-Disposition: form-data"))
	assert.False(t, ok)
}

func TestNopLoggerDiscards(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.Info().Str("k", "v").Msg("ignored")
		log.With(map[string]any{"a": 1}).Warn().Msg("ignored")
	})
}
