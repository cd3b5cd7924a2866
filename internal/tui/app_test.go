package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/internal/session"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := a.Update(msg)
	return model.(App), cmd
}

func mainApp(t *testing.T, env testEnv) App {
	t.Helper()
	a, _ := send(t, env.app(), guardDecisionMsg{decision: session.DecisionAllow})
	if a.phase != phaseMain {
		t.Fatalf("phase = %d, want main", a.phase)
	}
	return a
}

func TestAppGuardPendingRendersNothing(t *testing.T) {
	a := newTestEnv(t, nil, true).app()
	if got := a.View(); got != "" {
		t.Errorf("View() while guarding = %q, want empty", got)
	}
}

func TestAppGuardLoginDecision(t *testing.T) {
	a, cmd := send(t, newTestEnv(t, nil, false).app(), guardDecisionMsg{decision: session.DecisionLogin})
	if a.phase != phaseLogin {
		t.Fatalf("phase = %d, want login", a.phase)
	}
	if cmd == nil {
		t.Error("expected form init command")
	}
	if !strings.Contains(a.View(), "Sign in") {
		t.Errorf("login view missing prompt:\n%s", a.View())
	}
}

func TestAppGuardAllowShowsDashboard(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)
	if a.view != viewDashboard {
		t.Errorf("view = %d, want dashboard", a.view)
	}
	if a.wheel.email != "a@b.c" || a.box.email != "a@b.c" {
		t.Error("surfaces should carry the signed-in email")
	}
	if a.pollGen == 0 {
		t.Error("entering main should start a poll generation")
	}
}

func TestAppBanShowsNoticeOnce(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)

	env.sessions.Terminate("test")
	a, _ = send(t, a, banCheckedMsg{gen: a.pollGen, decision: session.DecisionBanned})
	if a.phase != phaseLogin {
		t.Fatalf("phase = %d, want login after ban", a.phase)
	}
	if a.login.notice != session.BannedNotice {
		t.Errorf("notice = %q", a.login.notice)
	}
	if !strings.Contains(a.View(), session.BannedNotice) {
		t.Error("login view should show the ban notice")
	}
	if env.sessions.State() != domain.StateAnonymous {
		t.Errorf("state = %v, want anonymous after acknowledge", env.sessions.State())
	}

	// A second ban signal changes nothing.
	env.sessions.Terminate("again")
	login := a.login
	a, _ = send(t, a, key("x"))
	if a.login != login {
		t.Error("second ban signal should not rebuild the login view")
	}
}

func TestAppStalePollTicksAreDropped(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)
	stale := a.pollGen - 1

	if _, cmd := send(t, a, banPollMsg{gen: stale}); cmd != nil {
		t.Error("stale poll tick should not schedule a check")
	}
	if _, cmd := send(t, a, banPollMsg{gen: a.pollGen}); cmd == nil {
		t.Error("current poll tick should schedule a check")
	}
	if _, cmd := send(t, a, banCheckedMsg{gen: a.pollGen, decision: session.DecisionAllow}); cmd == nil {
		t.Error("allowed check should schedule the next tick")
	}
	if _, cmd := send(t, a, banCheckedMsg{gen: stale, decision: session.DecisionAllow}); cmd != nil {
		t.Error("stale check result should be dropped")
	}
}

func TestAppLoginSuccessEntersMain(t *testing.T) {
	env := newTestEnv(t, nil, false)
	a, _ := send(t, env.app(), guardDecisionMsg{decision: session.DecisionLogin})

	a, cmd := send(t, a, loginDoneMsg{creds: domain.Credentials{Token: "new", Email: "new@b.c"}})
	if a.phase != phaseMain {
		t.Fatalf("phase = %d, want main", a.phase)
	}
	if cmd == nil {
		t.Error("expected dashboard load and ban check")
	}
	if tok, ok := env.sessions.Token(domain.PrincipalUser); !ok || tok != "new" {
		t.Errorf("token = %q, %v", tok, ok)
	}
	if a.wheel.email != "new@b.c" {
		t.Errorf("wheel email = %q", a.wheel.email)
	}
}

func TestAppLoginRejectionShowsReason(t *testing.T) {
	env := newTestEnv(t, nil, false)
	a, _ := send(t, env.app(), guardDecisionMsg{decision: session.DecisionLogin})
	a.login.submitting = true

	a, _ = send(t, a, loginDoneMsg{err: rejectedErr("Invalid credentials")})
	if a.phase != phaseLogin {
		t.Fatalf("phase = %d", a.phase)
	}
	if a.login.submitting {
		t.Error("failed login should re-enable the form")
	}
	if !strings.Contains(a.View(), "Invalid credentials") {
		t.Errorf("view missing reason:\n%s", a.View())
	}
}

func TestAppLeavingWheelCancelsReveal(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)
	a, _ = send(t, a, key("2"))
	if a.view != viewWheel {
		t.Fatalf("view = %d, want wheel", a.view)
	}

	p, err := env.resolver.Activate(context.Background(), reward.SurfaceWheel, "a@b.c", "")
	if err != nil {
		t.Fatal(err)
	}
	a, _ = send(t, a, spinCommittedMsg{gen: a.wheel.gen, p: p})
	if a.wheel.pending != p {
		t.Fatal("pending spin should be tracked")
	}

	a, _ = send(t, a, key("1"))
	if env.resolver.InFlight(reward.SurfaceWheel) {
		t.Error("leaving the wheel should release the surface")
	}
	if _, cmd := send(t, a, wheelRevealMsg{p: p}); cmd != nil {
		t.Error("reveal after leaving should be ignored")
	}
}

func TestAppLogout(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)
	a, _ = send(t, a, key("L"))
	if a.phase != phaseLogin {
		t.Fatalf("phase = %d, want login", a.phase)
	}
	if _, ok := env.sessions.Credentials(domain.PrincipalUser); ok {
		t.Error("logout should clear the user session")
	}
}

func TestAppRevealUpdatesHeaderBalance(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)
	a, _ = send(t, a, dashboardLoadedMsg{gen: a.dash.gen, user: &domain.User{Email: "a@b.c", Coins: 100}})
	a, _ = send(t, a, rewardRevealedMsg{surface: reward.SurfaceWheel, outcome: domain.RewardOutcome{NewBalance: 105}})
	if !strings.Contains(a.View(), "105 coins") {
		t.Errorf("header should show the server balance:\n%s", a.View())
	}
}

func TestAppDropsDashboardLoadFromPreviousSession(t *testing.T) {
	env := newTestEnv(t, nil, true)
	a := mainApp(t, env)
	stale := a.dash.gen

	a, _ = send(t, a, key("L"))
	a, _ = send(t, a, loginDoneMsg{creds: domain.Credentials{Token: "new", Email: "new@b.c"}})
	if a.phase != phaseMain {
		t.Fatalf("phase = %d, want main", a.phase)
	}
	if a.dash.gen == stale {
		t.Fatal("a new login should start a new dashboard generation")
	}

	a, _ = send(t, a, dashboardLoadedMsg{gen: stale, user: &domain.User{Email: "a@b.c", Coins: 999}})
	if _, ok := a.dash.coins(); ok {
		t.Error("load from the previous session should be dropped")
	}
	if strings.Contains(a.View(), "999") {
		t.Errorf("previous account's balance leaked into the view:\n%s", a.View())
	}

	a, _ = send(t, a, dashboardLoadedMsg{gen: a.dash.gen, user: &domain.User{Email: "new@b.c", Coins: 12}})
	if coins, ok := a.dash.coins(); !ok || coins != 12 {
		t.Errorf("coins = %d, %v; want 12 from the current session", coins, ok)
	}
}
