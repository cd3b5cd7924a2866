package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

// GetUser returns the account summary for email.
func (c *Client) GetUser(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := c.Get(ctx, "/api/user?email="+url.QueryEscape(email), &u); err != nil {
		return nil, fmt.Errorf("client.GetUser: %w", err)
	}
	return &u, nil
}

// ListCards returns the cards email has collected.
func (c *Client) ListCards(ctx context.Context, email string) ([]domain.CollectedCard, error) {
	var res struct {
		Success bool                   `json:"success"`
		Cards   []domain.CollectedCard `json:"cards"`
		Error   string                 `json:"error"`
	}
	if err := c.Get(ctx, "/api/box?email="+url.QueryEscape(email), &res); err != nil {
		return nil, fmt.Errorf("client.ListCards: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("client.ListCards: %w", rejected(res.Error, "Could not load cards"))
	}
	return res.Cards, nil
}

// ListRewards returns the redeemable catalog, filtered to available items.
func (c *Client) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	var res struct {
		Success bool            `json:"success"`
		Rewards []domain.Reward `json:"rewards"`
	}
	if err := c.Get(ctx, "/api/rewards/all", &res); err != nil {
		return nil, fmt.Errorf("client.ListRewards: %w", err)
	}
	available := make([]domain.Reward, 0, len(res.Rewards))
	for _, r := range res.Rewards {
		if r.Available() {
			available = append(available, r)
		}
	}
	return available, nil
}

// Redeem spends coins on a catalog reward.
func (c *Client) Redeem(ctx context.Context, email, rewardID string) (*domain.RedeemResult, error) {
	var res domain.RedeemResult
	body := map[string]string{"email": email, "rewardId": rewardID}
	if err := c.Post(ctx, "/api/rewards/redeem", body, &res); err != nil {
		return nil, fmt.Errorf("client.Redeem: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("client.Redeem: %w", rejected(res.Error, "Redemption failed."))
	}
	return &res, nil
}
