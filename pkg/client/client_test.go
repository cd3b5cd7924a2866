package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

type fakeSessions struct {
	mu         sync.Mutex
	tokens     map[domain.Principal]string
	terminated int
	lastReason string
}

func newFakeSessions(user, admin string) *fakeSessions {
	s := &fakeSessions{tokens: map[domain.Principal]string{}}
	if user != "" {
		s.tokens[domain.PrincipalUser] = user
	}
	if admin != "" {
		s.tokens[domain.PrincipalAdmin] = admin
	}
	return s
}

func (s *fakeSessions) Token(p domain.Principal) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[p]
	return t, ok
}

func (s *fakeSessions) Terminate(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[domain.Principal]string{}
	s.terminated++
	s.lastReason = reason
	return s.terminated == 1
}

func TestPrincipalFor(t *testing.T) {
	tests := []struct {
		path string
		want domain.Principal
	}{
		{"/api/admin/overview", domain.PrincipalAdmin},
		{"/api/admin", domain.PrincipalAdmin},
		{"/api/admin?range=7d", domain.PrincipalAdmin},
		{"/api/admin/users/42", domain.PrincipalAdmin},
		{"/api/administer", domain.PrincipalUser},
		{"/api/spin", domain.PrincipalUser},
		{"/api/auth/check-ban?email=a%40b.c", domain.PrincipalUser},
		{"/api/user?next=/api/admin/x", domain.PrincipalUser},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := PrincipalFor(tt.path); got != tt.want {
				t.Errorf("PrincipalFor(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveCredential(t *testing.T) {
	tests := []struct {
		name      string
		user      string
		admin     string
		path      string
		wantToken string
		wantOK    bool
	}{
		{"user path user token", "u-tok", "a-tok", "/api/spin", "u-tok", true},
		{"admin path admin token", "u-tok", "a-tok", "/api/admin/overview", "a-tok", true},
		{"admin path without admin token", "u-tok", "", "/api/admin/overview", "", false},
		{"user path without user token", "", "a-tok", "/api/user", "", false},
		{"no tokens", "", "", "/api/spin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("http://example.invalid", newFakeSessions(tt.user, tt.admin))
			tok, ok := c.ResolveCredential(tt.path)
			if tok != tt.wantToken || ok != tt.wantOK {
				t.Errorf("ResolveCredential(%q) = (%q, %v), want (%q, %v)", tt.path, tok, ok, tt.wantToken, tt.wantOK)
			}
		})
	}
}

func TestResolveCredential_NilSessions(t *testing.T) {
	c := New("http://example.invalid", nil)
	if tok, ok := c.ResolveCredential("/api/spin"); ok || tok != "" {
		t.Errorf("ResolveCredential() = (%q, %v), want no credential", tok, ok)
	}
}

func TestRequestsCarryPrincipalToken(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Get("Authorization")
		mu.Unlock()
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/api/admin/overview":
			json.NewEncoder(w).Encode(map[string]any{"success": true}) //nolint:errcheck
		default:
			json.NewEncoder(w).Encode(domain.User{Email: "a@b.c", Coins: 3}) //nolint:errcheck
		}
	}))
	defer srv.Close()

	c := New(srv.URL, newFakeSessions("user-token", "admin-token"))
	if _, err := c.GetUser(context.Background(), "a@b.c"); err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if _, err := c.AdminOverview(context.Background()); err != nil {
		t.Fatalf("AdminOverview() error: %v", err)
	}
	if got := seen["/api/user"]; got != "Bearer user-token" {
		t.Errorf("user request Authorization = %q, want %q", got, "Bearer user-token")
	}
	if got := seen["/api/admin/overview"]; got != "Bearer admin-token" {
		t.Errorf("admin request Authorization = %q, want %q", got, "Bearer admin-token")
	}
}

func TestAnyResponseWithBannedTrueTerminates(t *testing.T) {
	endpoints := []struct {
		name string
		call func(c *Client) error
	}{
		{"get user", func(c *Client) error { _, err := c.GetUser(context.Background(), "a@b.c"); return err }},
		{"list rewards", func(c *Client) error { _, err := c.ListRewards(context.Background()); return err }},
		{"spin", func(c *Client) error { _, err := c.Spin(context.Background(), "a@b.c", ModeFree); return err }},
		{"admin overview", func(c *Client) error { _, err := c.AdminOverview(context.Background()); return err }},
	}
	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"banned": true, "success": true}) //nolint:errcheck
			}))
			defer srv.Close()

			s := newFakeSessions("u", "a")
			c := New(srv.URL, s)
			err := ep.call(c)
			if !errors.Is(err, ErrBanned) {
				t.Fatalf("error = %v, want ErrBanned", err)
			}
			if s.terminated != 1 {
				t.Errorf("terminated = %d, want 1", s.terminated)
			}
			if _, ok := s.Token(domain.PrincipalUser); ok {
				t.Error("user token still present after ban")
			}
			if _, ok := s.Token(domain.PrincipalAdmin); ok {
				t.Error("admin token still present after ban")
			}
		})
	}
}

func TestBannedOnErrorStatusStillTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"banned": true, "error": "banned"}) //nolint:errcheck
	}))
	defer srv.Close()

	s := newFakeSessions("u", "")
	_, err := New(srv.URL, s).GetUser(context.Background(), "a@b.c")
	if !errors.Is(err, ErrBanned) {
		t.Fatalf("error = %v, want ErrBanned", err)
	}
	if s.terminated != 1 {
		t.Errorf("terminated = %d, want 1", s.terminated)
	}
}

func TestNonTrueBannedValuesDoNotTerminate(t *testing.T) {
	bodies := []string{
		`{"banned": false, "email": "a@b.c", "coins": 1}`,
		`{"banned": null, "email": "a@b.c"}`,
		`{"banned": "true", "email": "a@b.c"}`,
		`{"banned": 1, "email": "a@b.c"}`,
		`{"email": "a@b.c"}`,
		`{"user": {"banned": true}, "email": "a@b.c"}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(body)) //nolint:errcheck
			}))
			defer srv.Close()

			s := newFakeSessions("u", "")
			c := New(srv.URL, s)
			u, err := c.GetUser(context.Background(), "a@b.c")
			if err != nil {
				t.Fatalf("GetUser() error: %v", err)
			}
			if u.Email != "a@b.c" {
				t.Errorf("Email = %q, payload should survive the ban scan", u.Email)
			}
			if banned, err := c.CheckBan(context.Background(), "a@b.c"); banned || err != nil {
				t.Errorf("CheckBan() = %v, %v; want false, nil", banned, err)
			}
			if s.terminated != 0 {
				t.Errorf("terminated = %d, want 0", s.terminated)
			}
		})
	}
}

func TestHTMLFallbackIsNotABan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<!doctype html><html><body>banned: true</body></html>")) //nolint:errcheck
	}))
	defer srv.Close()

	s := newFakeSessions("u", "")
	banned, err := New(srv.URL, s).CheckBan(context.Background(), "a@b.c")
	if banned {
		t.Error("CheckBan() = true for an HTML 404, want false")
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("error = %v, want HTTP 404", err)
	}
	if s.terminated != 0 {
		t.Errorf("terminated = %d, want 0", s.terminated)
	}
}

func TestCheckBan(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"banned", `{"banned": true}`, true},
		{"not banned", `{"banned": false}`, false},
		{"absent", `{}`, false},
		{"string", `{"banned": "true"}`, false},
		{"number", `{"banned": 1}`, false},
		{"null", `{"banned": null}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auth/check-ban" {
					http.NotFound(w, r)
					return
				}
				if got := r.URL.Query().Get("email"); got != "a+b@c.d" {
					t.Errorf("email query = %q, want %q", got, "a+b@c.d")
				}
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			got, err := New(srv.URL, newFakeSessions("u", "")).CheckBan(context.Background(), "a+b@c.d")
			if err != nil {
				t.Fatalf("CheckBan() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckBan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/spin" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req spinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email != "a@b.c" || req.Mode != ModeFree {
			t.Errorf("request = %+v, want email a@b.c mode free", req)
		}
		json.NewEncoder(w).Encode(domain.SpinResult{ //nolint:errcheck
			Success:    true,
			Outcome:    "+5 Coins",
			Prize:      &domain.SpinPrize{Label: "+5 Coins", Type: "coins", Value: 5},
			TotalCoins: 105,
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL, newFakeSessions("u", "")).Spin(context.Background(), "a@b.c", ModeFree)
	if err != nil {
		t.Fatalf("Spin() error: %v", err)
	}
	if res.Outcome != "+5 Coins" || res.TotalCoins != 105 {
		t.Errorf("Spin() = %+v, want +5 Coins / 105", res)
	}
}

func TestSpin_OmitsEmptyMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		json.NewDecoder(r.Body).Decode(&raw) //nolint:errcheck
		if _, ok := raw["mode"]; ok {
			t.Errorf("mode sent for empty mode: %v", raw)
		}
		w.Write([]byte(`{"success": true, "outcome": "Nothing"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	if _, err := New(srv.URL, nil).Spin(context.Background(), "a@b.c", ""); err != nil {
		t.Fatalf("Spin() error: %v", err)
	}
}

func TestBusinessFailuresAreRejections(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"ok status", http.StatusOK, `{"success": false, "error": "No boxes available."}`, "No boxes available."},
		{"bad request", http.StatusBadRequest, `{"success": false, "error": "Cooldown active"}`, "Cooldown active"},
		{"no reason", http.StatusOK, `{"success": false}`, "Could not open box"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).OpenBox(context.Background(), "a@b.c")
			reason, ok := Rejection(err)
			if !ok {
				t.Fatalf("error = %v, want a RejectedError", err)
			}
			if reason != tt.want {
				t.Errorf("reason = %q, want %q", reason, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success": false, "error": "Invalid credentials"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"success": true, "token": "tok", "user": {"email": "canonical@b.c"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	creds, err := c.Login(context.Background(), "Canonical@b.c", "secret")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if creds.Token != "tok" || creds.Email != "canonical@b.c" {
		t.Errorf("Login() = %+v, want tok / canonical@b.c", creds)
	}

	_, err = c.Login(context.Background(), "a@b.c", "wrong")
	if reason, ok := Rejection(err); !ok || reason != "Invalid credentials" {
		t.Errorf("Login() error = %v, want rejection 'Invalid credentials'", err)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("IsStatus(err, 401) = false, want true")
	}
}

func TestAdminLoginUsesAdminEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/login" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"success": true, "token": "admin-tok"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	creds, err := New(srv.URL, nil).AdminLogin(context.Background(), "root@b.c", "pw")
	if err != nil {
		t.Fatalf("AdminLogin() error: %v", err)
	}
	if creds.Token != "admin-tok" || creds.Email != "root@b.c" {
		t.Errorf("AdminLogin() = %+v", creds)
	}
}

func TestListRewardsFiltersUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": true, "rewards": [
			{"_id": "1", "title": "Coupon", "priceCoins": 10, "stock": -1, "status": "active"},
			{"_id": "2", "title": "Sold out", "priceCoins": 10, "stock": 0},
			{"_id": "3", "title": "Draft", "priceCoins": 10, "stock": 5, "status": "draft"},
			{"_id": "4", "title": "Box", "priceCoins": 50, "stock": 2}
		]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	rewards, err := New(srv.URL, nil).ListRewards(context.Background())
	if err != nil {
		t.Fatalf("ListRewards() error: %v", err)
	}
	if len(rewards) != 2 {
		t.Fatalf("got %d rewards, want 2", len(rewards))
	}
	if rewards[0].ID != "1" || rewards[1].ID != "4" {
		t.Errorf("rewards = %+v, want ids 1 and 4", rewards)
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).GetUser(context.Background(), "a@b.c")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("error = %q, want it to contain 'boom'", got)
	}
	if _, ok := Rejection(err); ok {
		t.Error("500 without success:false should not be a rejection")
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)              // slow server
		json.NewEncoder(w).Encode(domain.User{}) //nolint:errcheck
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := New(srv.URL, nil).GetUser(ctx, "a@b.c")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
