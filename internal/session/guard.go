package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

// BanChecker asks the backend whether an account is banned.
type BanChecker interface {
	CheckBan(ctx context.Context, email string) (bool, error)
}

// Decision is the outcome of a route guard check.
type Decision int

const (
	// DecisionLogin means there are no usable local credentials.
	DecisionLogin Decision = iota
	// DecisionAllow means protected content may render.
	DecisionAllow
	// DecisionBanned means the session was terminated by a ban.
	DecisionBanned
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionBanned:
		return "banned"
	default:
		return "login"
	}
}

// Guard gates protected views on local credentials and a ban check.
type Guard struct {
	sessions *Manager
	checker  BanChecker
	log      *slog.Logger
	now      func() time.Time
	// inflight coalesces concurrent ban checks for the same email.
	inflight singleflight.Group
}

// NewGuard returns a guard over sessions that checks bans with checker.
func NewGuard(sessions *Manager, checker BanChecker, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Guard{sessions: sessions, checker: checker, log: log, now: time.Now}
}

// Admit decides whether the user may see protected content. Missing or
// expired credentials are cleared without a network call.
func (g *Guard) Admit(ctx context.Context) Decision {
	creds, ok := g.sessions.Credentials(domain.PrincipalUser)
	if !ok || TokenExpired(creds.Token, g.now()) {
		if err := g.sessions.Logout(domain.PrincipalUser); err != nil {
			g.log.Warn("clear user session", "error", err)
		}
		return DecisionLogin
	}
	return g.Check(ctx)
}

// AdmitAdmin gates the admin console on a locally present admin token.
func (g *Guard) AdmitAdmin() Decision {
	creds, ok := g.sessions.Credentials(domain.PrincipalAdmin)
	if !ok || TokenExpired(creds.Token, g.now()) {
		if err := g.sessions.Logout(domain.PrincipalAdmin); err != nil {
			g.log.Warn("clear admin session", "error", err)
		}
		return DecisionLogin
	}
	return DecisionAllow
}

// Check runs one ban check for the signed-in user. A transport failure
// fails open; a ban terminates the session immediately.
func (g *Guard) Check(ctx context.Context) Decision {
	email := g.sessions.Email()
	if email == "" {
		return DecisionLogin
	}
	v, err, _ := g.inflight.Do(email, func() (any, error) {
		return g.checker.CheckBan(ctx, email)
	})
	banned, _ := v.(bool)
	if errors.Is(err, client.ErrBanned) {
		banned, err = true, nil
	}
	if err != nil {
		g.log.Warn("ban check failed", "error", err)
		return DecisionAllow
	}
	if banned {
		g.sessions.Terminate("ban check")
		return DecisionBanned
	}
	return DecisionAllow
}
