package buildingapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gaborage/facility-client/httpclient"
)

// ListCameras returns every camera.
func (c *Client) ListCameras(ctx context.Context) ([]Camera, error) {
	env, err := getJSON[dataEnvelope[[]Camera]](ctx, c, &httpclient.Request{Path: "/cameras"})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetCamera returns one camera.
func (c *Client) GetCamera(ctx context.Context, id int) (*Camera, error) {
	env, err := getJSON[dataEnvelope[Camera]](ctx, c, &httpclient.Request{
		Path:           fmt.Sprintf("/cameras/%d", id),
		FailureMessage: "Camera not found",
	})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// ListAlerts returns alerts with the given status; empty status lists all.
func (c *Client) ListAlerts(ctx context.Context, status string) ([]Alert, error) {
	req := &httpclient.Request{Path: "/alerts"}
	if status != "" {
		req.Query = url.Values{"status": []string{status}}
	}
	env, err := getJSON[alertsEnvelope](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return env.Alerts, nil
}

// ReportFireAlert raises a fire alert. EventType defaults to "fire" and
// DetectedAt to now.
func (c *Client) ReportFireAlert(ctx context.Context, alert FireAlert) (*Message, error) {
	if alert.EventType == "" {
		alert.EventType = "fire"
	}
	if alert.DetectedAt.IsZero() {
		alert.DetectedAt = time.Now().UTC()
	}
	msg, err := postJSON[Message](ctx, c, "/alerts/fire", alert, "Alert failed")
	if err != nil {
		return nil, err
	}
	c.logger.Warn().Str("severity", alert.Severity).Str("room", alert.Room).Msg("Fire alert reported")
	return &msg, nil
}

// ReportFloorPresence replaces the live presence list of one floor.
// Timestamp defaults to now.
func (c *Client) ReportFloorPresence(ctx context.Context, presence FloorPresence) (*Message, error) {
	if presence.Timestamp.IsZero() {
		presence.Timestamp = time.Now().UTC()
	}
	if presence.People == nil {
		presence.People = []PresentPerson{}
	}
	msg, err := postJSON[Message](ctx, c, "/presence/update-floor", presence, "Presence update failed")
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FloorLive returns who is currently present on a floor.
func (c *Client) FloorLive(ctx context.Context, floorID int) (*FloorLive, error) {
	live, err := getJSON[FloorLive](ctx, c, &httpclient.Request{Path: fmt.Sprintf("/presence/floor-live/%d", floorID)})
	if err != nil {
		return nil, err
	}
	return &live, nil
}
