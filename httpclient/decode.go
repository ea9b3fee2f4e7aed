package httpclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON decodes a successful response body into T. The shape is not
// validated beyond what encoding/json enforces.
func DecodeJSON[T any](resp *Response) (T, error) {
	var out T
	if resp == nil || len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("httpclient: decode response (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

// ErrorMessage extracts a display message from an error body: "detail",
// then "message", then fallback. Bodies that are not JSON objects yield fallback.
func ErrorMessage(body []byte, fallback string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	for _, key := range []string{"detail", "message"} {
		if msg := messageField(payload[key]); msg != "" {
			return msg
		}
	}
	return fallback
}

// messageField renders string fields as-is and validation-style arrays
// (e.g. [{"msg": "..."}]) joined by "; ".
func messageField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			switch it := item.(type) {
			case string:
				parts = append(parts, it)
			case map[string]any:
				if m, ok := it["msg"].(string); ok {
					parts = append(parts, m)
				}
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
