// Package reward turns server-decided spin and box results into reveals.
// The server is the only authority on what was won; this package only
// serialises commits per surface and stages the reveal.
package reward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

// DefaultRevealDelay is how long the wheel animates before its outcome is shown.
const DefaultRevealDelay = 5 * time.Second

var (
	// ErrSignInRequired is returned when there is no signed-in email.
	ErrSignInRequired = errors.New("please sign in first")
	// ErrInFlight is returned when the surface already has a commit or reveal in progress.
	ErrInFlight = errors.New("reward already in progress")
	// ErrServer is returned when the commit request failed in transport.
	ErrServer = errors.New("server error")
	// ErrDiscarded is returned when the surface was cancelled before its reveal.
	ErrDiscarded = errors.New("reveal discarded")
)

// Surface identifies an interactive reward surface.
type Surface int

const (
	SurfaceWheel Surface = iota
	SurfaceBox
	surfaceCount
)

func (s Surface) String() string {
	switch s {
	case SurfaceWheel:
		return "wheel"
	case SurfaceBox:
		return "box"
	}
	return fmt.Sprintf("surface(%d)", int(s))
}

// Committer issues the commit requests. *client.Client satisfies it.
type Committer interface {
	Spin(ctx context.Context, email, mode string) (*domain.SpinResult, error)
	OpenBox(ctx context.Context, email string) (*domain.BoxResult, error)
}

type phase int

const (
	phaseIdle phase = iota
	phaseCommitting
	phaseRevealing
)

type slot struct {
	phase phase
	// discard marks a committing surface whose response must be dropped.
	discard bool
	ticket  uint64
}

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	Wheel       *Wheel
	Catalog     *Catalog
	RevealDelay time.Duration
	Rand        *rand.Rand
	Logger      *slog.Logger
}

// Resolver serialises commits per surface. Each surface allows at most one
// commit request until its reveal has been consumed or cancelled.
type Resolver struct {
	committer   Committer
	wheel       *Wheel
	catalog     *Catalog
	revealDelay time.Duration
	log         *slog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	slots  [surfaceCount]slot
	ticket uint64
}

// NewResolver returns a resolver committing through c.
func NewResolver(c Committer, opts Options) *Resolver {
	r := &Resolver{
		committer:   c,
		wheel:       opts.Wheel,
		catalog:     opts.Catalog,
		revealDelay: opts.RevealDelay,
		rng:         opts.Rand,
		log:         opts.Logger,
	}
	if r.wheel == nil {
		r.wheel = NewWheel(nil)
	}
	if r.catalog == nil {
		r.catalog = DefaultCatalog()
	}
	if r.revealDelay <= 0 {
		r.revealDelay = DefaultRevealDelay
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Wheel returns the wheel used to place spin outcomes.
func (r *Resolver) Wheel() *Wheel {
	return r.wheel
}

// Pending is a committed outcome waiting to be revealed.
type Pending struct {
	Surface Surface
	Outcome domain.RewardOutcome
	// Rotation is the wheel's final clockwise rotation in degrees.
	Rotation float64
	// Segment is the landing segment, or -1 when the outcome is not on the wheel.
	Segment int
	// Image is the card art asset for box reveals.
	Image       string
	RevealAfter time.Duration

	ticket uint64
}

// Activate commits one action on surface s. The surface is marked busy
// before the request is sent, so a concurrent Activate on the same surface
// returns ErrInFlight without a request.
func (r *Resolver) Activate(ctx context.Context, s Surface, email, mode string) (*Pending, error) {
	if email == "" {
		return nil, ErrSignInRequired
	}
	if s < 0 || s >= surfaceCount {
		return nil, fmt.Errorf("reward.Activate: unknown %s", s)
	}

	r.mu.Lock()
	sl := &r.slots[s]
	if sl.phase != phaseIdle {
		r.mu.Unlock()
		return nil, ErrInFlight
	}
	r.ticket++
	*sl = slot{phase: phaseCommitting, ticket: r.ticket}
	ticket := r.ticket
	r.mu.Unlock()

	var (
		outcome domain.RewardOutcome
		err     error
	)
	switch s {
	case SurfaceWheel:
		var res *domain.SpinResult
		if res, err = r.committer.Spin(ctx, email, mode); err == nil {
			outcome = res.RewardOutcome()
		}
	case SurfaceBox:
		var res *domain.BoxResult
		if res, err = r.committer.OpenBox(ctx, email); err == nil {
			outcome = res.RewardOutcome()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	discarded := sl.discard
	if err != nil || discarded {
		*sl = slot{}
	}
	if err != nil {
		return nil, r.commitError(ctx, s, err)
	}
	if discarded {
		r.log.Debug("reveal discarded", "surface", s.String())
		return nil, ErrDiscarded
	}

	p := &Pending{Surface: s, Outcome: outcome, Segment: -1, ticket: ticket}
	switch s {
	case SurfaceWheel:
		full := minFullRotations + r.rng.IntN(maxFullRotations-minFullRotations)
		p.RevealAfter = r.revealDelay
		if i, ok := r.wheel.IndexOf(outcome.Label); ok {
			p.Segment = i
			p.Rotation = r.wheel.TargetRotation(i, full)
		} else {
			p.Rotation = float64(full) * 360
			r.log.Warn("spin outcome not on wheel", "label", outcome.Label)
		}
	case SurfaceBox:
		p.Image = r.catalog.Image(outcome.Card)
	}
	sl.phase = phaseRevealing
	return p, nil
}

func (r *Resolver) commitError(ctx context.Context, s Surface, err error) error {
	switch {
	case errors.Is(err, client.ErrBanned):
		return client.ErrBanned
	case client.IsRejected(err):
		var rej *client.RejectedError
		errors.As(err, &rej)
		return rej
	case ctx.Err() != nil:
		return ctx.Err()
	}
	r.log.Warn("commit failed", "surface", s.String(), "error", err)
	return ErrServer
}

// Reveal consumes p and frees its surface. It reports false when p was
// cancelled or has already been revealed.
func (r *Resolver) Reveal(p *Pending) (domain.RewardOutcome, bool) {
	if p == nil {
		return domain.RewardOutcome{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sl := &r.slots[p.Surface]
	if sl.phase != phaseRevealing || sl.ticket != p.ticket {
		return domain.RewardOutcome{}, false
	}
	*sl = slot{}
	return p.Outcome, true
}

// Cancel abandons surface s. A pending reveal is dropped; an in-flight
// commit keeps the surface busy until its response arrives and is dropped.
func (r *Resolver) Cancel(s Surface) {
	if s < 0 || s >= surfaceCount {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sl := &r.slots[s]
	switch sl.phase {
	case phaseRevealing:
		*sl = slot{}
	case phaseCommitting:
		sl.discard = true
	}
}

// InFlight reports whether surface s has a commit or reveal outstanding.
func (r *Resolver) InFlight(s Surface) bool {
	if s < 0 || s >= surfaceCount {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[s].phase != phaseIdle
}

// Run activates s and blocks until the outcome can be revealed.
// Cancelling ctx cancels the surface.
func (r *Resolver) Run(ctx context.Context, s Surface, email, mode string) (domain.RewardOutcome, error) {
	p, err := r.Activate(ctx, s, email, mode)
	if err != nil {
		return domain.RewardOutcome{}, err
	}
	if p.RevealAfter > 0 {
		timer := time.NewTimer(p.RevealAfter)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			r.Cancel(s)
			return domain.RewardOutcome{}, ctx.Err()
		case <-timer.C:
		}
	}
	out, ok := r.Reveal(p)
	if !ok {
		return domain.RewardOutcome{}, ErrDiscarded
	}
	return out, nil
}

// Message returns the text to show for an Activate or Run error. Errors
// that need no message, such as a busy surface or a ban already handled by
// the session, return "".
func Message(err error) string {
	if reason, ok := client.Rejection(err); ok {
		return reason
	}
	switch {
	case err == nil, errors.Is(err, ErrInFlight), errors.Is(err, ErrDiscarded),
		errors.Is(err, client.ErrBanned), errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, ErrSignInRequired):
		return "Please sign in first"
	}
	return "Server error"
}
