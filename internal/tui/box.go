package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cannabuben/cannabuben/internal/browser"
	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

type boxOpenedMsg struct {
	gen int
	p   *reward.Pending
	err error
}

type openArtMsg struct{ err error }

var (
	defaultOpenURL = browser.Open
	// openURL is replaced in tests.
	openURL = defaultOpenURL
)

type boxModel struct {
	resolver *reward.Resolver
	assetURL string
	email    string

	gen     int
	commits int
	spinner spinner.Model
	result  *domain.RewardOutcome
	image   string
	message string
}

func newBoxModel(r *reward.Resolver, assetURL string) boxModel {
	return boxModel{
		resolver: r,
		assetURL: assetURL,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
	}
}

func (m boxModel) reset() boxModel {
	m.gen++
	m.commits = 0
	m.message = ""
	return m
}

func (m boxModel) open() tea.Cmd {
	r, gen, email := m.resolver, m.gen, m.email
	return func() tea.Msg {
		p, err := r.Activate(context.Background(), reward.SurfaceBox, email, "")
		return boxOpenedMsg{gen: gen, p: p, err: err}
	}
}

func (m boxModel) Update(msg tea.Msg) (boxModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ":
			if m.email == "" {
				m.message = reward.Message(reward.ErrSignInRequired)
				return m, nil
			}
			m.message = ""
			m.commits++
			if m.commits > 1 {
				return m, m.open()
			}
			return m, tea.Batch(m.spinner.Tick, m.open())
		case "o":
			if m.image != "" {
				url := reward.AssetURL(m.assetURL, m.image)
				return m, func() tea.Msg { return openArtMsg{err: openURL(url)} }
			}
		}

	case spinner.TickMsg:
		if m.commits == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case boxOpenedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if m.commits > 0 {
			m.commits--
		}
		if errors.Is(msg.err, reward.ErrInFlight) {
			if m.commits == 0 && m.resolver.InFlight(reward.SurfaceBox) {
				m.message = "previous box is still opening"
			}
			return m, nil
		}
		if msg.err != nil {
			m.message = reward.Message(msg.err)
			return m, nil
		}
		out, ok := m.resolver.Reveal(msg.p)
		if !ok {
			return m, nil
		}
		m.result = &out
		m.image = msg.p.Image
		return m, func() tea.Msg { return rewardRevealedMsg{surface: reward.SurfaceBox, outcome: out} }

	case openArtMsg:
		if msg.err != nil {
			m.message = "could not open browser: " + msg.err.Error()
		}
	}
	return m, nil
}

func (m boxModel) View() string {
	var b strings.Builder
	b.WriteString(" " + goldStyle.Render("Mystery Box") + "\n\n")

	switch {
	case m.commits > 0:
		b.WriteString(" " + m.spinner.View() + " " + dimStyle.Render("opening pack...") + "\n")
	case m.result != nil:
		line := m.result.Summary()
		if m.result.Card != nil {
			rarity := domain.NormalizeRarity(m.result.Card.Rarity)
			line = RarityStyle(rarity).Render("●") + " " + line
		}
		b.WriteString(" " + revealStyle.Render(line) + "\n")
		fmt.Fprintf(&b, " %s %s\n", metaStyle.Render("art:"), dimStyle.Render(m.image))
		fmt.Fprintf(&b, " %s\n", metaStyle.Render(fmt.Sprintf("%d boxes left", m.result.Boxes)))
	default:
		b.WriteString(" " + dimStyle.Render("press enter to open a box") + "\n")
	}
	if m.message != "" {
		b.WriteString(" " + errorStyle.Render(m.message) + "\n")
	}
	return b.String()
}
