package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

// dashboardLoadedMsg carries the generation of the dashboard that asked
// for it; a load from a previous session is dropped.
type dashboardLoadedMsg struct {
	gen   int
	user  *domain.User
	cards []domain.CollectedCard
	err   error
}

type dashboardModel struct {
	client  *client.Client
	catalog *reward.Catalog
	email   string
	gen     int
	user    *domain.User
	cards   []domain.CollectedCard
	loading bool
	err     string
	width   int
	height  int
}

func newDashboardModel(c *client.Client, catalog *reward.Catalog, email string, gen int) dashboardModel {
	return dashboardModel{client: c, catalog: catalog, email: email, gen: gen, loading: true}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.load()
}

// load fetches the profile and collection concurrently.
func (m dashboardModel) load() tea.Cmd {
	c, email, gen := m.client, m.email, m.gen
	return func() tea.Msg {
		var (
			user  *domain.User
			cards []domain.CollectedCard
		)
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			u, err := c.GetUser(ctx, email)
			user = u
			return err
		})
		g.Go(func() error {
			cs, err := c.ListCards(ctx, email)
			cards = cs
			return err
		})
		if err := g.Wait(); err != nil {
			return dashboardLoadedMsg{gen: gen, err: err}
		}
		return dashboardLoadedMsg{gen: gen, user: user, cards: cards}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if reason, ok := client.Rejection(msg.err); ok {
				m.err = reason
			} else {
				m.err = msg.err.Error()
			}
			return m, nil
		}
		m.user = msg.user
		m.cards = msg.cards
		m.err = ""

	case rewardRevealedMsg:
		// The reveal carries the server's new balance; the rest reloads.
		if m.user != nil {
			m.user.Coins = msg.outcome.NewBalance
		}
		return m, m.load()

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.load()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// coins returns the last server-confirmed balance.
func (m dashboardModel) coins() (int, bool) {
	if m.user == nil {
		return 0, false
	}
	return m.user.Coins, true
}

func (m dashboardModel) View() string {
	if m.loading && m.user == nil {
		return " " + dimStyle.Render("loading account...")
	}
	if m.err != "" && m.user == nil {
		return " " + errorStyle.Render("error: "+m.err)
	}

	var b strings.Builder
	u := m.user
	fmt.Fprintf(&b, " %s %s   %s %s   %s %s\n\n",
		goldStyle.Render(fmt.Sprintf("%d", u.Coins)), dimStyle.Render("coins"),
		selectedStyle.Render(fmt.Sprintf("%d", u.BoxCount())), dimStyle.Render("boxes"),
		selectedStyle.Render(fmt.Sprintf("%d", u.SpinTickets)), dimStyle.Render("spin tickets"))

	if m.err != "" {
		b.WriteString(" " + errorStyle.Render("refresh failed: "+m.err) + "\n\n")
	}

	b.WriteString(" " + metaStyle.Render(fmt.Sprintf("Collection (%d)", len(m.cards))) + "\n")
	if len(m.cards) == 0 {
		b.WriteString(" " + dimStyle.Render("no cards yet, open a box") + "\n")
		return b.String()
	}
	maxLines := m.height - 4
	if maxLines < 5 {
		maxLines = 10
	}
	for i, cc := range m.cards {
		if i >= maxLines {
			fmt.Fprintf(&b, " %s\n", dimStyle.Render(fmt.Sprintf("…and %d more", len(m.cards)-i)))
			break
		}
		rarity := domain.NormalizeRarity(cc.Rarity)
		fmt.Fprintf(&b, "  %s %s %s\n",
			RarityStyle(rarity).Render("●"),
			normalStyle.Render(truncStr(cc.Name, 32)),
			metaStyle.Render(rarity+"  "+m.catalog.ImageForCollected(cc)))
	}
	return b.String()
}
