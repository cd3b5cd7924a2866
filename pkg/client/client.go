package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

// maxBodySize caps how much of any response body is read.
const maxBodySize = 1 << 20

// adminPrefix is the path namespace served with the administrator token.
const adminPrefix = "/api/admin"

// Sessions supplies bearer tokens and receives ban terminations.
type Sessions interface {
	Token(p domain.Principal) (string, bool)
	Terminate(reason string) bool
}

// Client is the loyalty API client.
type Client struct {
	baseURL    string
	sessions   Sessions
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new API client. sessions may be nil for unauthenticated use.
func New(baseURL string, sessions Sessions, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PrincipalFor returns the principal whose token a request to path carries.
func PrincipalFor(path string) domain.Principal {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == adminPrefix || strings.HasPrefix(path, adminPrefix+"/") {
		return domain.PrincipalAdmin
	}
	return domain.PrincipalUser
}

// ResolveCredential returns the bearer token for a request to path, if any.
// It only reads session state.
func (c *Client) ResolveCredential(path string) (string, bool) {
	if c.sessions == nil {
		return "", false
	}
	return c.sessions.Token(PrincipalFor(path))
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, ok := c.ResolveCredential(path); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	env := CheckEnvelope(data)
	if env.Banned {
		if c.sessions != nil {
			c.sessions.Terminate(method + " " + PrincipalFor(path).String() + " " + stripQuery(path))
		}
		return ErrBanned
	}

	if resp.StatusCode >= 400 {
		if _, apiErr, err := DecodeEnvelope[apiError](data); err == nil && apiErr.Error != "" {
			if apiErr.Success != nil && !*apiErr.Success {
				return &RejectedError{StatusCode: resp.StatusCode, Reason: apiErr.Error}
			}
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := env.Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError is the {success: false, error} shape of a failed request.
type apiError struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
