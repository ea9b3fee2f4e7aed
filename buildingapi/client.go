// Package buildingapi exposes typed operations of the building-management
// API on top of the resilient httpclient.
package buildingapi

import (
	"context"
	nethttp "net/http"

	"github.com/gaborage/facility-client/httpclient"
	"github.com/gaborage/facility-client/logger"
	"github.com/gaborage/facility-client/session"
)

// Client groups the API operations. It is safe for concurrent use.
type Client struct {
	http    httpclient.Client
	session *session.Manager
	logger  logger.Logger
}

// New creates a Client. sess may be nil when login/logout are not used.
func New(api httpclient.Client, sess *session.Manager, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{http: api, session: sess, logger: log}
}

// dataEnvelope is the {"data": ...} wrapper used by resource endpoints.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type alertsEnvelope struct {
	Alerts []Alert `json:"alerts"`
}

// request dispatches req and decodes the successful body into T.
func request[T any](ctx context.Context, c *Client, method string, req *httpclient.Request) (T, error) {
	resp, err := c.http.Do(ctx, method, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return httpclient.DecodeJSON[T](resp)
}

func getJSON[T any](ctx context.Context, c *Client, req *httpclient.Request) (T, error) {
	return request[T](ctx, c, nethttp.MethodGet, req)
}

func postJSON[T any](ctx context.Context, c *Client, path string, body any, fallback string) (T, error) {
	req, err := httpclient.NewJSONRequest(path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	req.FailureMessage = fallback
	return request[T](ctx, c, nethttp.MethodPost, req)
}
