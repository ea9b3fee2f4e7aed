package httpclient

import (
	nethttp "net/http"

	"github.com/gaborage/facility-client/logger"
)

// defaultMaxPayloadLogBytes caps body previews. Header values are masked by
// the logger's sensitive data filter.
const defaultMaxPayloadLogBytes = 1024

// payloadFilter masks credentials inside JSON bodies before they are
// previewed. Login requests carry a password and login responses a token.
var payloadFilter = logger.NewSensitiveDataFilter(nil)

func (c *client) logRequest(req *nethttp.Request, body []byte, requestID string) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID)
	if n := len(req.Header); n > 0 {
		event = event.Int("header_count", n)
	}
	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}
	event.Msg("REST client request")

	if !c.config.LogPayloads {
		return
	}
	event = c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", requestID).
		Interface("headers", req.Header)
	c.withPreview(event, body).Msg("REST client request")
}

func (c *client) logResponse(resp *Response, requestID string) {
	event := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", requestID)
	if resp.Stats.Attempts > 0 {
		event = event.Int("attempt", resp.Stats.Attempts)
	}
	if len(resp.Body) > 0 {
		event = event.Int("body_size", len(resp.Body))
	}
	event.Msg("REST client response")

	if !c.config.LogPayloads {
		return
	}
	event = c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Interface("headers", resp.Headers)
	c.withPreview(event, resp.Body).Msg("REST client response")
}

func (c *client) logRetry(method, path, requestID string, attempt int, d Decision, cause error) {
	event := c.logger.Warn().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Str("reason", d.Reason).
		Int("attempt", attempt+1).
		Int("max_retries", c.config.Retry.MaxRetries).
		Dur("delay", d.Delay)
	if cause != nil {
		event = event.Err(cause)
	}
	event.Msg("Retrying API call")
}

func (c *client) logEviction(path, requestID string, err error) {
	event := c.logger.Warn().
		Str("path", path).
		Str("request_id", requestID)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Session rejected by API, clearing stored credentials")
}

// withPreview attaches a masked, truncated preview of a JSON body. Other
// bodies (multipart uploads, HTML error pages) are only sized.
func (c *client) withPreview(event logger.Event, body []byte) logger.Event {
	event = event.Int("body_size", len(body))
	if len(body) == 0 {
		return event
	}
	masked, ok := payloadFilter.FilterJSON(body)
	if !ok {
		return event.Bool("body_omitted", true)
	}
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = defaultMaxPayloadLogBytes
	}
	truncated := len(masked) > limit
	if truncated {
		masked = masked[:limit]
	}
	return event.
		Bool("body_truncated", truncated).
		Bytes("body_preview", masked)
}
