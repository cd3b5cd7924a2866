package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges a user's email and password for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Credentials, error) {
	creds, err := c.authenticate(ctx, "/api/auth/login", email, password)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("client.Login: %w", err)
	}
	return creds, nil
}

// Register creates a password for an existing customer email and signs in.
func (c *Client) Register(ctx context.Context, email, password string) (domain.Credentials, error) {
	creds, err := c.authenticate(ctx, "/api/auth/register", email, password)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("client.Register: %w", err)
	}
	return creds, nil
}

// AdminLogin exchanges administrator credentials for an admin token.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (domain.Credentials, error) {
	creds, err := c.authenticate(ctx, "/api/admin/login", email, password)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("client.AdminLogin: %w", err)
	}
	return creds, nil
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (domain.Credentials, error) {
	var res domain.AuthResult
	if err := c.Post(ctx, path, credentialsRequest{Email: email, Password: password}, &res); err != nil {
		return domain.Credentials{}, err
	}
	if !res.Success || res.Token == "" {
		return domain.Credentials{}, rejected(res.Error, "Auth failed")
	}
	creds := domain.Credentials{Token: res.Token, Email: email}
	if res.User != nil && res.User.Email != "" {
		creds.Email = res.User.Email
	}
	return creds, nil
}

// CheckBan asks whether email's account is banned. Any value other than
// banned: true is reported as not banned.
func (c *Client) CheckBan(ctx context.Context, email string) (bool, error) {
	// The envelope scan in doRequest is the only reader of the flag.
	err := c.Get(ctx, "/api/auth/check-ban?email="+url.QueryEscape(email), nil)
	if errors.Is(err, ErrBanned) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("client.CheckBan: %w", err)
	}
	return false, nil
}

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("client.Me: %w", errNoEmail)
	}
	return c.GetUser(ctx, email)
}
