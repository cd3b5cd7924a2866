package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/internal/session"
	"github.com/cannabuben/cannabuben/internal/tui"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cannabuben",
		Short: "Loyalty rewards in your terminal",
		Long: `cannabuben is a terminal client for the cannabuben loyalty program.

Run it without arguments for the interactive client, or use the
subcommands for single actions.

Environment Variables:
  CANNABUBEN_API_URL            Backend API URL
  CANNABUBEN_CONFIG_DIR         Session and log directory (default: ~/.cannabuben)
  CANNABUBEN_BAN_POLL_INTERVAL  Ban re-check interval (default: 10s)
  CANNABUBEN_REVEAL_DELAY       Wheel animation length (default: 5s)
  CANNABUBEN_WHEEL_LABELS       Wheel labels separated by |
  CANNABUBEN_ASSET_URL          Base URL for card art
  LOG_LEVEL, LOG_FORMAT         Logging (debug|info|warn|error, text|json)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI()
		},
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Backend API URL (overrides CANNABUBEN_API_URL)")
	root.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "Keep the session in memory only")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		c.authCmd("login", "Sign in with email and password", domain.PrincipalUser, false),
		c.authCmd("register", "Create a password for your customer email and sign in", domain.PrincipalUser, true),
		c.logoutCmd(domain.PrincipalUser),
		c.spinCmd(),
		c.openCmd(),
		c.balanceCmd(),
		c.cardsCmd(),
		c.rewardsCmd(),
		c.redeemCmd(),
		c.watchCmd(),
		c.adminCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) runTUI() error {
	app := tui.NewApp(tui.Options{
		Client:       c.client,
		Sessions:     c.sessions,
		Guard:        c.guard,
		Resolver:     c.resolver,
		Catalog:      c.catalog,
		AssetURL:     c.cfg.AssetURL,
		PollInterval: c.cfg.BanPollInterval,
		Version:      version,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// promptCredentials asks for whichever of email and password is missing.
func promptCredentials(title string, email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email).Validate(notEmpty("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password).Validate(notEmpty("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...).Title(title)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return context.Canceled
		}
		return fmt.Errorf("read credentials: %w", err)
	}
	return nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func (c *cli) authCmd(use, short string, p domain.Principal, register bool) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "Sign in"
			if p == domain.PrincipalAdmin {
				title = "Admin sign in"
			}
			if err := promptCredentials(title, &email, &password); err != nil {
				return err
			}
			email = strings.TrimSpace(email)

			var (
				creds domain.Credentials
				err   error
			)
			switch {
			case p == domain.PrincipalAdmin:
				creds, err = c.client.AdminLogin(cmd.Context(), email, password)
			case register:
				creds, err = c.client.Register(cmd.Context(), email, password)
			default:
				creds, err = c.client.Login(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}
			if err := c.sessions.Login(p, creds); err != nil {
				return err
			}
			c.printf("Signed in as %s\n", creds.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd(p domain.Principal) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := c.sessions.Credentials(p); !ok {
				c.printf("Already logged out.\n")
				return nil
			}
			if err := c.sessions.Logout(p); err != nil {
				return err
			}
			c.printf("Logged out.\n")
			return nil
		},
	}
}

func (c *cli) spinCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "spin",
		Short: "Spin the daily wheel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "" && mode != client.ModeFree && mode != client.ModePremium {
				return fmt.Errorf("unknown mode %q (want %s or %s)", mode, client.ModeFree, client.ModePremium)
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			email, err := c.requireUser(ctx)
			if err != nil {
				return err
			}
			if !c.jsonOutput {
				c.printf("Spinning...\n")
			}
			out, err := c.resolver.Run(ctx, reward.SurfaceWheel, email, mode)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(out)
			}
			c.printf("%s\n", out.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "Prize pool: free or premium")
	return cmd
}

func (c *cli) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open a mystery box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			email, err := c.requireUser(ctx)
			if err != nil {
				return err
			}
			out, err := c.resolver.Run(ctx, reward.SurfaceBox, email, "")
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(out)
			}
			c.printf("%s\n", out.Summary())
			c.printf("Art: %s\n", reward.AssetURL(c.cfg.AssetURL, c.catalog.Image(out.Card)))
			c.printf("Boxes left: %d\n", out.Boxes)
			return nil
		},
	}
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show coins, boxes and spin tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := c.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			u, err := c.client.Me(cmd.Context(), email)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(u)
			}
			c.printf("%s\n  Coins:        %d\n  Boxes:        %d\n  Spin tickets: %d\n", email, u.Coins, u.BoxCount(), u.SpinTickets)
			return nil
		},
	}
}

func (c *cli) cardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "List your card collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := c.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			cards, err := c.client.ListCards(cmd.Context(), email)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(cards)
			}
			if len(cards) == 0 {
				c.printf("No cards yet. Open a box with `cannabuben open`.\n")
				return nil
			}
			for _, cc := range cards {
				c.printf("  %-10s %-28s %s\n", domain.NormalizeRarity(cc.Rarity), cc.Name, c.catalog.ImageForCollected(cc))
			}
			return nil
		},
	}
}

func (c *cli) rewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards",
		Short: "List redeemable rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireUser(cmd.Context()); err != nil {
				return err
			}
			rewards, err := c.client.ListRewards(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(rewards)
			}
			if len(rewards) == 0 {
				c.printf("No rewards available right now.\n")
				return nil
			}
			for _, r := range rewards {
				stock := "unlimited"
				if r.Stock >= 0 {
					stock = fmt.Sprintf("%d left", r.Stock)
				}
				c.printf("  %-26s %-30s %6d coins  %s\n", r.ID, r.Title, r.PriceCoins, stock)
			}
			return nil
		},
	}
}

func (c *cli) redeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem REWARD_ID",
		Short: "Spend coins on a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := c.requireUser(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.client.Redeem(cmd.Context(), email, args[0])
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(res)
			}
			msg := res.Message
			if msg == "" {
				msg = "Reward redeemed."
			}
			c.printf("%s\n", msg)
			if res.User != nil {
				c.printf("Balance: %d coins\n", res.User.Coins)
			}
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep re-checking the session until interrupted or banned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()
			if _, err := c.requireUser(ctx); err != nil {
				return err
			}
			w := session.NewWatcher(c.guard, c.cfg.BanPollInterval)
			w.OnCheck = func(d session.Decision) {
				c.log.Debug("ban check", "decision", d.String())
			}
			c.printf("Watching session every %s (ctrl+c to stop)\n", c.cfg.BanPollInterval)
			return w.Run(ctx)
		},
	}
}

func (c *cli) adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Administrator session",
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Check the admin session against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.guard.AdmitAdmin() != session.DecisionAllow {
				return fmt.Errorf("%w: run `cannabuben admin login`", session.ErrNoSession)
			}
			overview, err := c.client.AdminOverview(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.writeJSON(overview)
			}
			creds, _ := c.sessions.Credentials(domain.PrincipalAdmin)
			c.printf("Admin session active for %s\n", creds.Email)
			return nil
		},
	}
	admin.AddCommand(
		c.authCmd("login", "Sign in as an administrator", domain.PrincipalAdmin, false),
		c.logoutCmd(domain.PrincipalAdmin),
		status,
	)
	return admin
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		// Version needs no config or session.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printf("cannabuben %s\n", version)
			return nil
		},
	}
}
