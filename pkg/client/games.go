package client

import (
	"context"
	"fmt"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

// Spin modes accepted by the spin endpoint.
const (
	ModeFree    = "free"
	ModePremium = "premium"
)

type spinRequest struct {
	Email string `json:"email"`
	Mode  string `json:"mode,omitempty"`
}

// Spin commits one wheel spin. mode may be empty for the server default pool.
// A {success: false} response is returned as a *RejectedError.
func (c *Client) Spin(ctx context.Context, email, mode string) (*domain.SpinResult, error) {
	var res domain.SpinResult
	if err := c.Post(ctx, "/api/spin", spinRequest{Email: email, Mode: mode}, &res); err != nil {
		return nil, fmt.Errorf("client.Spin: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("client.Spin: %w", rejected(res.Error, "Spin failed"))
	}
	return &res, nil
}

// OpenBox commits one mystery box open.
// A {success: false} response is returned as a *RejectedError.
func (c *Client) OpenBox(ctx context.Context, email string) (*domain.BoxResult, error) {
	var res domain.BoxResult
	if err := c.Post(ctx, "/api/box/open", map[string]string{"email": email}, &res); err != nil {
		return nil, fmt.Errorf("client.OpenBox: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("client.OpenBox: %w", rejected(res.Error, "Could not open box"))
	}
	return &res, nil
}
