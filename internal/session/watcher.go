package session

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is how often the watcher re-checks for a ban.
const DefaultPollInterval = 10 * time.Second

// Watcher polls the ban check for as long as its context lives.
type Watcher struct {
	guard    *Guard
	interval time.Duration
	// OnCheck, when set, is called after every completed check.
	OnCheck func(Decision)
}

// NewWatcher returns a watcher using guard. A non-positive interval uses DefaultPollInterval.
func NewWatcher(guard *Guard, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{guard: guard, interval: interval}
}

// Run checks immediately and then once per interval. It returns
// ErrTerminated when a ban ends the session, ErrNoSession when nobody is
// signed in, and the context error on cancellation. The ticker is always
// stopped on return.
func (w *Watcher) Run(ctx context.Context) error {
	if w.guard.sessions.Email() == "" {
		return fmt.Errorf("session.Watcher.Run: %w", ErrNoSession)
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		d := w.guard.Check(ctx)
		if w.OnCheck != nil {
			w.OnCheck(d)
		}
		switch d {
		case DecisionBanned:
			return fmt.Errorf("session.Watcher.Run: %w", ErrTerminated)
		case DecisionLogin:
			return fmt.Errorf("session.Watcher.Run: %w", ErrNoSession)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.guard.sessions.Done():
			return fmt.Errorf("session.Watcher.Run: %w", ErrTerminated)
		case <-ticker.C:
		}
	}
}
