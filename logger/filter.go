package logger

import (
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// DefaultMaxDepth bounds recursion into nested maps.
const DefaultMaxDepth = 8

// FilterConfig defines which field names are considered sensitive.
type FilterConfig struct {
	// SensitiveFields are matched case-insensitively as substrings of field names.
	SensitiveFields []string
	// MaskValue replaces sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig masks credentials that travel with API requests:
// bearer tokens, session cookies and registration passwords.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "authorization", "cookie",
			"credential",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks sensitive values before they reach a log event.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config uses DefaultFilterConfig.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key names a sensitive field.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}
	return value
}

// FilterValue masks value when key is sensitive and otherwise descends into
// headers and maps, masking sensitive entries.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filterValue(key, value, DefaultMaxDepth)
}

// FilterFields filters a map of fields for sensitive data
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

// FilterJSON re-encodes a JSON document with sensitive keys masked.
// Containers nested deeper than DefaultMaxDepth are masked whole. ok is
// false when body is not valid JSON.
func (f *SensitiveDataFilter) FilterJSON(body []byte) (masked []byte, ok bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false
	}
	masked, err := json.Marshal(f.filterValue("", doc, DefaultMaxDepth))
	if err != nil {
		return nil, false
	}
	return masked, true
}

func (f *SensitiveDataFilter) filterValue(key string, value any, depth int) any {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}
	if value == nil {
		return value
	}
	if depth <= 0 {
		switch value.(type) {
		case http.Header, map[string]string, map[string]any, []any:
			return f.config.MaskValue
		}
		return value
	}

	switch v := value.(type) {
	case http.Header:
		return f.filterHeader(v)
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, s := range v {
			out[k] = f.FilterString(k, s)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, nested := range v {
			out[k] = f.filterValue(k, nested, depth-1)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, nested := range v {
			out[i] = f.filterValue("", nested, depth-1)
		}
		return out
	default:
		return value
	}
}

func (f *SensitiveDataFilter) filterHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		if f.isSensitiveField(name) {
			out[name] = []string{f.config.MaskValue}
			continue
		}
		out[name] = append([]string(nil), values...)
	}
	return out
}

func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}
