package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cannabuben/cannabuben/internal/config"
	"github.com/cannabuben/cannabuben/internal/logging"
	"github.com/cannabuben/cannabuben/internal/reward"
	"github.com/cannabuben/cannabuben/internal/session"
	"github.com/cannabuben/cannabuben/pkg/client"
	"github.com/cannabuben/cannabuben/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitRejected = 2
	exitBanned   = 3
)

var errNotSignedIn = fmt.Errorf("%w: run `cannabuben login`", session.ErrNoSession)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// cli holds the collaborators shared by every command.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	apiURL     string
	ephemeral  bool
	jsonOutput bool

	cfg      config.Config
	log      *slog.Logger
	logFile  io.Closer
	store    session.Store
	sessions *session.Manager
	client   *client.Client
	guard    *session.Guard
	resolver *reward.Resolver
	catalog  *reward.Catalog
}

func execute(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if c.logFile != nil {
		c.logFile.Close() //nolint:errcheck
	}
	if c.sessions != nil && c.sessions.State() == domain.StateBannedOut {
		printNotice(stderr, c.sessions.Acknowledge())
	}
	switch code := exitCode(err); code {
	case exitOK:
		return exitOK
	case exitBanned:
		return code
	default:
		if errors.Is(err, session.ErrNoSession) {
			printGreeting(stderr)
		}
		fmt.Fprintf(stderr, "error: %v\n", err) //nolint:errcheck
		return code
	}
}

func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return exitOK
	case errors.Is(err, client.ErrBanned), errors.Is(err, session.ErrTerminated):
		return exitBanned
	case client.IsRejected(err):
		return exitRejected
	default:
		return exitError
	}
}

// setup builds the session and client stack. The TUI logs to a file;
// every other command logs to stderr.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg, err = cfg.WithAPIURL(c.apiURL); err != nil {
		return err
	}
	c.cfg = cfg

	if cmd.Parent() == nil {
		f, err := logging.OpenFile(cfg.ConfigDir)
		if err != nil {
			return err
		}
		c.logFile = f
		c.log = logging.New(f, cfg.LogLevel, cfg.LogFormat)
	} else {
		c.log = logging.New(c.stderr, cfg.LogLevel, cfg.LogFormat)
	}

	if c.store == nil {
		if c.ephemeral {
			c.store = session.NewMemoryStore()
		} else {
			c.store = session.NewFileStore(cfg.ConfigDir)
		}
	}
	c.sessions = session.NewManager(c.store, c.log)
	c.client = client.New(cfg.APIURL, c.sessions, client.WithLogger(c.log))
	c.guard = session.NewGuard(c.sessions, c.client, c.log)
	c.catalog = reward.DefaultCatalog()
	c.resolver = reward.NewResolver(c.client, reward.Options{
		Wheel:       reward.NewWheel(cfg.WheelLabels),
		Catalog:     c.catalog,
		RevealDelay: cfg.RevealDelay,
		Logger:      c.log,
	})
	return nil
}

// requireUser runs the route guard and returns the signed-in email.
func (c *cli) requireUser(ctx context.Context) (string, error) {
	switch c.guard.Admit(ctx) {
	case session.DecisionLogin:
		return "", errNotSignedIn
	case session.DecisionBanned:
		return "", client.ErrBanned
	}
	return c.sessions.Email(), nil
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...) //nolint:errcheck
}
