package client

import (
	"context"
	"fmt"
)

// AdminOverview probes the protected admin overview endpoint. It succeeds
// only when the stored admin token is accepted.
func (c *Client) AdminOverview(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	if err := c.Get(ctx, "/api/admin/overview", &res); err != nil {
		return nil, fmt.Errorf("client.AdminOverview: %w", err)
	}
	if ok, _ := res["success"].(bool); !ok {
		msg, _ := res["error"].(string)
		return nil, fmt.Errorf("client.AdminOverview: %w", rejected(msg, "Auth failed"))
	}
	return res, nil
}
