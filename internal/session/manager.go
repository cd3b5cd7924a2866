package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

// BannedNotice is shown once when a ban ends the session.
const BannedNotice = "Your account has been banned. You have been logged out."

var (
	// ErrIncompleteCredentials is returned when a token or email is missing.
	ErrIncompleteCredentials = errors.New("token and email are both required")
	// ErrNoSession is returned when an operation needs a user session and there is none.
	ErrNoSession = errors.New("not signed in")
	// ErrTerminated is returned by long-running session work ended by a ban.
	ErrTerminated = errors.New("session terminated")
)

// Manager is the single writer of credential state. Login, logout and ban
// termination all go through it so the token/email pair is never observed
// half-written.
type Manager struct {
	mu     sync.Mutex
	store  Store
	log    *slog.Logger
	state  domain.SessionState
	notice string
	// latched stays set from a ban until the next Login so repeated ban
	// signals only terminate once.
	latched bool
	done    chan struct{}
}

// NewManager returns a manager over store. The initial state reflects
// whatever user credentials the store already holds.
func NewManager(store Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{store: store, log: log, done: make(chan struct{})}
	if c, err := store.Load(domain.PrincipalUser); err == nil && c.Valid() {
		m.state = domain.StateAuthenticated
	}
	return m
}

// Login stores c for principal p. A user login starts a new session generation.
func (m *Manager) Login(p domain.Principal, c domain.Credentials) error {
	if !c.Valid() {
		return fmt.Errorf("session.Login: %w", ErrIncompleteCredentials)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(p, c); err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}
	if p == domain.PrincipalUser {
		m.state = domain.StateAuthenticated
		m.latched = false
		m.notice = ""
		m.done = make(chan struct{})
	}
	m.log.Info("session started", "principal", p.String(), "email", c.Email)
	return nil
}

// Logout clears principal p's credentials.
func (m *Manager) Logout(p domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(p); err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	if p == domain.PrincipalUser && m.state == domain.StateAuthenticated {
		m.state = domain.StateAnonymous
	}
	return nil
}

// Credentials returns p's stored pair when both halves are present.
func (m *Manager) Credentials(p domain.Principal) (domain.Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.store.Load(p)
	if err != nil {
		m.log.Warn("load credentials", "principal", p.String(), "error", err)
		return domain.Credentials{}, false
	}
	return c, c.Valid()
}

// Token returns p's bearer token.
func (m *Manager) Token(p domain.Principal) (string, bool) {
	c, ok := m.Credentials(p)
	return c.Token, ok
}

// Email returns the signed-in user's email, or "".
func (m *Manager) Email() string {
	c, _ := m.Credentials(domain.PrincipalUser)
	return c.Email
}

// Terminate clears both namespaces. It reports true only for the first
// termination since the last user login; callers use that to show the
// notice and navigate exactly once.
func (m *Manager) Terminate(reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range domain.Principals {
		if err := m.store.Clear(p); err != nil {
			m.log.Error("clear credentials", "principal", p.String(), "error", err)
		}
	}
	if m.latched {
		return false
	}
	m.latched = true
	m.state = domain.StateBannedOut
	m.notice = BannedNotice
	close(m.done)
	m.log.Warn("session terminated", "reason", reason)
	return true
}

// State returns the user session state.
func (m *Manager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Acknowledge returns the pending notice, if any, and moves a banned-out
// session to anonymous. The notice is returned once.
func (m *Manager) Acknowledge() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.notice
	m.notice = ""
	if m.state == domain.StateBannedOut {
		m.state = domain.StateAnonymous
	}
	return n
}

// Done is closed when the current session generation is terminated by a ban.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}
