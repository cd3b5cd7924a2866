package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

const (
	actionSignIn   = "signin"
	actionRegister = "register"
)

// loginDoneMsg carries the result of a sign-in or registration request.
type loginDoneMsg struct {
	creds domain.Credentials
	err   error
}

// loginModel is used through a pointer because the form binds its fields.
type loginModel struct {
	client *client.Client
	form   *huh.Form

	email    string
	password string
	action   string

	notice     string
	err        string
	submitting bool
	width      int
}

func newLoginModel(c *client.Client, notice string) *loginModel {
	m := &loginModel{client: c, notice: notice, action: actionSignIn}
	m.form = m.newForm()
	return m
}

func (m *loginModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(required("password")),
			huh.NewSelect[string]().
				Title("Action").
				Options(
					huh.NewOption("Sign in", actionSignIn),
					huh.NewOption("Create account", actionRegister),
				).
				Value(&m.action),
		),
	).WithTheme(formTheme()).WithShowHelp(false)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func (m *loginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *loginModel) Update(msg tea.Msg) (*loginModel, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = ws.Width
	}
	if m.submitting {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitting = true
		m.err = ""
		return m, m.submit()
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

func (m *loginModel) submit() tea.Cmd {
	c := m.client
	email := strings.TrimSpace(m.email)
	password := m.password
	register := m.action == actionRegister
	return func() tea.Msg {
		var (
			creds domain.Credentials
			err   error
		)
		if register {
			creds, err = c.Register(context.Background(), email, password)
		} else {
			creds, err = c.Login(context.Background(), email, password)
		}
		return loginDoneMsg{creds: creds, err: err}
	}
}

// failed resets the form after a rejected attempt, keeping the email.
func (m *loginModel) failed(err error) tea.Cmd {
	m.submitting = false
	m.password = ""
	if reason, ok := client.Rejection(err); ok {
		m.err = reason
	} else {
		m.err = reward.Message(err)
	}
	m.form = m.newForm()
	return m.form.Init()
}

func (m *loginModel) View() string {
	var b strings.Builder
	if m.notice != "" {
		b.WriteString(" " + noticeStyle.Render(m.notice) + "\n\n")
	}
	b.WriteString(" " + goldStyle.Render("Sign in to collect rewards") + "\n\n")
	if m.submitting {
		b.WriteString(" " + dimStyle.Render("signing in...") + "\n")
		return b.String()
	}
	b.WriteString(m.form.View())
	if m.err != "" {
		b.WriteString("\n " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}
