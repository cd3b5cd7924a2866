package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/internal/session"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

type phase int

const (
	// phaseGuarding renders nothing until the route guard decides.
	phaseGuarding phase = iota
	phaseLogin
	phaseMain
)

type view int

const (
	viewDashboard view = iota
	viewWheel
	viewBox
)

// Options wires the App to its collaborators.
type Options struct {
	Client       *client.Client
	Sessions     *session.Manager
	Guard        *session.Guard
	Resolver     *reward.Resolver
	Catalog      *reward.Catalog
	AssetURL     string
	PollInterval time.Duration
	Version      string
}

type guardDecisionMsg struct{ decision session.Decision }

// banPollMsg and banCheckedMsg carry the poll generation; a generation
// ends whenever the protected views are torn down.
type banPollMsg struct{ gen int }

type banCheckedMsg struct {
	gen      int
	decision session.Decision
}

// App is the root Bubbletea model.
type App struct {
	opts    Options
	phase   phase
	view    view
	login   *loginModel
	dash    dashboardModel
	wheel   wheelModel
	box     boxModel
	pollGen int
	width   int
	height  int
	frame   int
}

// NewApp creates a new TUI application.
func NewApp(opts Options) App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = session.DefaultPollInterval
	}
	if opts.Catalog == nil {
		opts.Catalog = reward.DefaultCatalog()
	}
	return App{
		opts:  opts,
		phase: phaseGuarding,
		login: newLoginModel(opts.Client, ""),
		dash:  newDashboardModel(opts.Client, opts.Catalog, "", 0),
		wheel: newWheelModel(opts.Resolver),
		box:   newBoxModel(opts.Resolver, opts.AssetURL),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.admit())
}

func (a App) admit() tea.Cmd {
	g := a.opts.Guard
	return func() tea.Msg {
		return guardDecisionMsg{decision: g.Admit(context.Background())}
	}
}

func (a App) pollCmd() tea.Cmd {
	gen := a.pollGen
	return tea.Tick(a.opts.PollInterval, func(time.Time) tea.Msg {
		return banPollMsg{gen: gen}
	})
}

func (a App) checkCmd() tea.Cmd {
	g, gen := a.opts.Guard, a.pollGen
	return func() tea.Msg {
		return banCheckedMsg{gen: gen, decision: g.Check(context.Background())}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a, cmd := a.update(msg)
	// Any response may have carried a ban; the session has already been
	// cleared, so leave the protected views exactly once.
	if a.opts.Sessions.State() == domain.StateBannedOut {
		a = a.toLogin(a.opts.Sessions.Acknowledge())
		return a, tea.Batch(cmd, a.login.Init())
	}
	return a, cmd
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1)
		body := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.dash, _ = a.dash.Update(body)
		a.wheel, _ = a.wheel.Update(body)
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(body)
		return a, cmd

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case guardDecisionMsg:
		if a.phase != phaseGuarding {
			return a, nil
		}
		switch msg.decision {
		case session.DecisionAllow:
			// Admit has just run a ban check, so polling starts one interval out.
			return a.enterMain(false)
		case session.DecisionLogin:
			a = a.toLogin("")
			return a, a.login.Init()
		}
		return a, nil

	case banPollMsg:
		if msg.gen != a.pollGen || a.phase != phaseMain {
			return a, nil
		}
		return a, a.checkCmd()

	case banCheckedMsg:
		if msg.gen != a.pollGen || a.phase != phaseMain {
			return a, nil
		}
		if msg.decision == session.DecisionLogin {
			a = a.toLogin("")
			return a, a.login.Init()
		}
		return a, a.pollCmd()

	case loginDoneMsg:
		if a.phase != phaseLogin {
			return a, nil
		}
		if msg.err != nil {
			return a, a.login.failed(msg.err)
		}
		if err := a.opts.Sessions.Login(domain.PrincipalUser, msg.creds); err != nil {
			return a, a.login.failed(err)
		}
		return a.enterMain(true)

	case rewardRevealedMsg:
		var cmd tea.Cmd
		a.dash, cmd = a.dash.Update(msg)
		return a, cmd

	case dashboardLoadedMsg:
		var cmd tea.Cmd
		a.dash, cmd = a.dash.Update(msg)
		return a, cmd

	case spinCommittedMsg, wheelFrameMsg, wheelRevealMsg, copyResultMsg:
		var cmd tea.Cmd
		a.wheel, cmd = a.wheel.Update(msg)
		return a, cmd

	case boxOpenedMsg, openArtMsg:
		var cmd tea.Cmd
		a.box, cmd = a.box.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.phase == phaseMain {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "1":
				return a.switchView(viewDashboard)
			case "2":
				return a.switchView(viewWheel)
			case "3":
				return a.switchView(viewBox)
			case "L":
				return a.logout()
			}
		}
	}

	var cmd tea.Cmd
	switch a.phase {
	case phaseLogin:
		a.login, cmd = a.login.Update(msg)
	case phaseMain:
		switch a.view {
		case viewDashboard:
			a.dash, cmd = a.dash.Update(msg)
		case viewWheel:
			a.wheel, cmd = a.wheel.Update(msg)
		case viewBox:
			a.box, cmd = a.box.Update(msg)
		}
	}
	return a, cmd
}

// enterMain shows the dashboard and starts a new poll generation. After an
// interactive login the first ban check runs immediately.
func (a App) enterMain(checkNow bool) (App, tea.Cmd) {
	email := a.opts.Sessions.Email()
	a.phase = phaseMain
	a.view = viewDashboard
	a.pollGen++
	a.dash = newDashboardModel(a.opts.Client, a.opts.Catalog, email, a.pollGen)
	a.dash, _ = a.dash.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height - 4})
	a.wheel = a.wheel.reset()
	a.wheel.email = email
	a.box = a.box.reset()
	a.box.email = email

	poll := a.pollCmd()
	if checkNow {
		poll = a.checkCmd()
	}
	return a, tea.Batch(a.dash.Init(), poll)
}

// leave tears down the reward surface of the current view.
func (a App) leave() App {
	switch a.view {
	case viewWheel:
		a.opts.Resolver.Cancel(reward.SurfaceWheel)
		a.wheel = a.wheel.reset()
	case viewBox:
		a.opts.Resolver.Cancel(reward.SurfaceBox)
		a.box = a.box.reset()
	}
	return a
}

func (a App) switchView(v view) (App, tea.Cmd) {
	if v == a.view {
		return a, nil
	}
	a = a.leave()
	a.view = v
	if v == viewDashboard {
		return a, a.dash.load()
	}
	return a, nil
}

func (a App) toLogin(notice string) App {
	if a.phase == phaseMain {
		a = a.leave()
	}
	a.pollGen++
	a.phase = phaseLogin
	a.view = viewDashboard
	a.login = newLoginModel(a.opts.Client, notice)
	a.login.width = a.width
	return a
}

func (a App) logout() (App, tea.Cmd) {
	if err := a.opts.Sessions.Logout(domain.PrincipalUser); err != nil {
		a.dash.err = err.Error()
		return a, nil
	}
	a = a.toLogin("")
	return a, a.login.Init()
}

func (a App) View() string {
	if a.phase == phaseGuarding {
		return ""
	}

	header := center(renderShimmerLogo(a.frame), a.width)
	if a.phase == phaseLogin {
		out := header + "\n\n" + a.login.View()
		if a.opts.Version != "" {
			out += "\n " + metaStyle.Render("cannabuben "+a.opts.Version)
		}
		return out
	}

	stats := metaStyle.Render(a.opts.Sessions.Email())
	if coins, ok := a.dash.coins(); ok {
		stats += metaStyle.Render(" . ") + goldStyle.Render(fmt.Sprintf("%d coins", coins))
	}
	header += "\n" + center(stats, a.width)

	tabs := []struct {
		key  string
		name string
		v    view
	}{
		{"1", "Dashboard", viewDashboard},
		{"2", "Wheel", viewWheel},
		{"3", "Box", viewBox},
	}
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		pad := colWidth - lipgloss.Width(label)
		left := pad / 2
		if left < 0 {
			left = 0
		}
		right := pad - left
		if right < 0 {
			right = 0
		}
		tabBar.WriteString(strings.Repeat(" ", left) + label + strings.Repeat(" ", right))
	}

	var body, help string
	switch a.view {
	case viewDashboard:
		body = a.dash.View()
		help = helpBar([2]string{"1-3", "views"}, [2]string{"r", "refresh"}, [2]string{"L", "logout"}, [2]string{"q", "quit"})
	case viewWheel:
		body = a.wheel.View()
		help = helpBar([2]string{"1-3", "views"}, [2]string{"enter", "spin"}, [2]string{"m", "mode"}, [2]string{"c", "copy"}, [2]string{"q", "quit"})
	case viewBox:
		body = a.box.View()
		help = helpBar([2]string{"1-3", "views"}, [2]string{"enter", "open"}, [2]string{"o", "view art"}, [2]string{"q", "quit"})
	}
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar.String(), body, help)
}
