package tui

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/internal/session"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

type fakeCommitter struct {
	spin *domain.SpinResult
	box  *domain.BoxResult
	err  error
}

func (f *fakeCommitter) Spin(ctx context.Context, email, mode string) (*domain.SpinResult, error) {
	return f.spin, f.err
}

func (f *fakeCommitter) OpenBox(ctx context.Context, email string) (*domain.BoxResult, error) {
	return f.box, f.err
}

func defaultCommitter() *fakeCommitter {
	return &fakeCommitter{
		spin: &domain.SpinResult{
			Success:    true,
			Outcome:    "+5 Coins",
			Prize:      &domain.SpinPrize{Label: "+5 Coins", Type: "coins", Value: 5},
			TotalCoins: 105,
		},
		box: &domain.BoxResult{
			Success:        true,
			Card:           &domain.Card{ID: 4, Name: "Blue Dream", Rarity: "Rare"},
			BoxesLeft:      2,
			RemainingCoins: 80,
		},
	}
}

type testEnv struct {
	sessions *session.Manager
	resolver *reward.Resolver
	client   *client.Client
}

func newTestEnv(t *testing.T, fc *fakeCommitter, signedIn bool) testEnv {
	t.Helper()
	m := session.NewManager(session.NewMemoryStore(), nil)
	if signedIn {
		if err := m.Login(domain.PrincipalUser, domain.Credentials{Token: "tok", Email: "a@b.c"}); err != nil {
			t.Fatal(err)
		}
	}
	if fc == nil {
		fc = defaultCommitter()
	}
	return testEnv{
		sessions: m,
		resolver: reward.NewResolver(fc, reward.Options{
			RevealDelay: 50 * time.Millisecond,
			Rand:        rand.New(rand.NewPCG(3, 4)),
		}),
		client: client.New("http://127.0.0.1:0", m),
	}
}

func (e testEnv) app() App {
	a := NewApp(Options{
		Client:       e.client,
		Sessions:     e.sessions,
		Guard:        session.NewGuard(e.sessions, e.client, nil),
		Resolver:     e.resolver,
		AssetURL:     "https://cdn.example.com/cards",
		PollInterval: time.Second,
		Version:      "test",
	})
	a.width = 100
	a.height = 40
	return a
}
