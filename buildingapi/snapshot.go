package buildingapi

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Snapshot fetches floors, employees and active alerts concurrently. The
// first failure cancels the remaining calls and is returned.
func (c *Client) Snapshot(ctx context.Context, floorID *int) (*Snapshot, error) {
	g, gctx := errgroup.WithContext(ctx)
	var snap Snapshot

	g.Go(func() error {
		floors, err := c.ListFloors(gctx)
		snap.Floors = floors
		return err
	})
	g.Go(func() error {
		employees, err := c.ListEmployees(gctx, floorID)
		snap.Employees = employees
		return err
	})
	g.Go(func() error {
		alerts, err := c.ListAlerts(gctx, AlertStatusActive)
		snap.ActiveAlerts = alerts
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}
