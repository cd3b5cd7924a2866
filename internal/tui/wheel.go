package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

// rewardRevealedMsg is emitted once per consumed outcome so the dashboard
// can pick up the server's balance.
type rewardRevealedMsg struct {
	surface reward.Surface
	outcome domain.RewardOutcome
}

type spinCommittedMsg struct {
	gen int
	p   *reward.Pending
	err error
}

type wheelFrameMsg struct{ p *reward.Pending }

type wheelRevealMsg struct{ p *reward.Pending }

type copyResultMsg struct{ err error }

var (
	defaultClipboardWrite = clipboard.WriteAll
	// clipboardWrite is replaced in tests.
	clipboardWrite = defaultClipboardWrite
)

type wheelModel struct {
	resolver *reward.Resolver
	email    string
	mode     string

	// gen changes whenever the view is left so late commits are ignored.
	gen int
	// commits counts this view's outstanding Activate calls.
	commits   int
	pending   *reward.Pending
	started   time.Time
	angle     float64
	highlight int
	result    *domain.RewardOutcome
	message   string
	now       func() time.Time
	width     int
}

func newWheelModel(r *reward.Resolver) wheelModel {
	return wheelModel{resolver: r, mode: client.ModeFree, highlight: -1, now: time.Now}
}

// reset abandons any spin in progress. The caller cancels the resolver surface.
func (m wheelModel) reset() wheelModel {
	m.gen++
	m.commits = 0
	m.pending = nil
	m.message = ""
	return m
}

func (m wheelModel) spin() tea.Cmd {
	r, gen, email, mode := m.resolver, m.gen, m.email, m.mode
	return func() tea.Msg {
		p, err := r.Activate(context.Background(), reward.SurfaceWheel, email, mode)
		return spinCommittedMsg{gen: gen, p: p, err: err}
	}
}

func frameCmd(p *reward.Pending) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return wheelFrameMsg{p: p} })
}

func revealCmd(p *reward.Pending) tea.Cmd {
	return tea.Tick(p.RevealAfter, func(time.Time) tea.Msg { return wheelRevealMsg{p: p} })
}

// easeOut decelerates the wheel towards its final rotation.
func easeOut(f float64) float64 {
	return 1 - math.Pow(1-f, 3)
}

func (m wheelModel) Update(msg tea.Msg) (wheelModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ":
			if m.email == "" {
				m.message = reward.Message(reward.ErrSignInRequired)
				return m, nil
			}
			m.commits++
			m.message = ""
			return m, m.spin()
		case "m":
			if !m.busy() {
				if m.mode == client.ModeFree {
					m.mode = client.ModePremium
				} else {
					m.mode = client.ModeFree
				}
			}
		case "c":
			if m.result != nil {
				text := m.result.Summary()
				return m, func() tea.Msg {
					return copyResultMsg{err: clipboardWrite(text)}
				}
			}
		}

	case spinCommittedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if m.commits > 0 {
			m.commits--
		}
		if errors.Is(msg.err, reward.ErrInFlight) {
			// A press while busy; the first spin keeps going.
			if !m.busy() && m.resolver.InFlight(reward.SurfaceWheel) {
				m.message = "previous spin is still finishing"
			}
			return m, nil
		}
		if msg.err != nil {
			m.message = reward.Message(msg.err)
			return m, nil
		}
		m.pending = msg.p
		m.started = m.now()
		m.result = nil
		return m, tea.Batch(frameCmd(msg.p), revealCmd(msg.p))

	case wheelFrameMsg:
		if msg.p != m.pending || m.pending == nil {
			return m, nil
		}
		f := 1.0
		if d := m.pending.RevealAfter; d > 0 {
			f = math.Min(1, float64(m.now().Sub(m.started))/float64(d))
		}
		m.angle = m.pending.Rotation * easeOut(f)
		m.highlight = m.resolver.Wheel().SegmentAt(m.angle)
		if f < 1 {
			return m, frameCmd(m.pending)
		}

	case wheelRevealMsg:
		if msg.p != m.pending || m.pending == nil {
			return m, nil
		}
		p := m.pending
		m.pending = nil
		out, ok := m.resolver.Reveal(p)
		if !ok {
			return m, nil
		}
		m.angle = p.Rotation
		m.highlight = p.Segment
		m.result = &out
		return m, func() tea.Msg { return rewardRevealedMsg{surface: reward.SurfaceWheel, outcome: out} }

	case copyResultMsg:
		if msg.err != nil {
			m.message = "copy failed: " + msg.err.Error()
		} else {
			m.message = "copied to clipboard"
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m wheelModel) busy() bool {
	return m.commits > 0 || m.pending != nil
}

func (m wheelModel) View() string {
	var b strings.Builder
	labels := m.resolver.Wheel().Labels()

	mode := "free"
	if m.mode == client.ModePremium {
		mode = "premium"
	}
	fmt.Fprintf(&b, " %s %s\n\n", goldStyle.Render("Daily Spin"), metaStyle.Render("("+mode+")"))

	const perRow = 4
	for i, l := range labels {
		style := segmentStyle
		if i == m.highlight {
			style = segmentLitStyle
		}
		if i%perRow == 0 {
			b.WriteString(" ")
		}
		b.WriteString(style.Render(fmt.Sprintf("%-12s", l)))
		if i%perRow == perRow-1 || i == len(labels)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.pending != nil:
		b.WriteString(" " + accentStyle.Render("spinning...") + "\n")
	case m.commits > 0:
		b.WriteString(" " + dimStyle.Render("contacting server...") + "\n")
	case m.result != nil:
		b.WriteString(" " + revealStyle.Render(m.result.Summary()) + "\n")
	}
	if m.message != "" {
		b.WriteString(" " + errorStyle.Render(m.message) + "\n")
	}
	return b.String()
}
