// Package config loads client settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultAPIURL is the production backend.
const DefaultAPIURL = "https://api.cannabuben.de"

// Config holds the client's runtime settings.
type Config struct {
	APIURL          string        `env:"CANNABUBEN_API_URL"           envDefault:"https://api.cannabuben.de"`
	ConfigDir       string        `env:"CANNABUBEN_CONFIG_DIR"`
	BanPollInterval time.Duration `env:"CANNABUBEN_BAN_POLL_INTERVAL" envDefault:"10s"`
	RevealDelay     time.Duration `env:"CANNABUBEN_REVEAL_DELAY"      envDefault:"5s"`
	WheelLabels     []string      `env:"CANNABUBEN_WHEEL_LABELS"      envSeparator:"|"`
	AssetURL        string        `env:"CANNABUBEN_ASSET_URL"`
	LogLevel        string        `env:"LOG_LEVEL"                    envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"                   envDefault:"text"`
}

// Load reads an optional .env file from the working directory and parses
// the process environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}
	return parse(env.Options{})
}

// Parse builds a Config from environ alone, ignoring the process environment.
func Parse(environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: CANNABUBEN_API_URL %q is not an http(s) URL", c.APIURL)
	}
	if c.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("config: get home dir: %w", err)
		}
		c.ConfigDir = filepath.Join(home, ".cannabuben")
	}
	if c.BanPollInterval <= 0 {
		return fmt.Errorf("config: CANNABUBEN_BAN_POLL_INTERVAL must be positive, got %s", c.BanPollInterval)
	}
	if c.RevealDelay < 0 {
		return fmt.Errorf("config: CANNABUBEN_REVEAL_DELAY must not be negative, got %s", c.RevealDelay)
	}
	labels := c.WheelLabels[:0]
	for _, l := range c.WheelLabels {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	c.WheelLabels = labels
	if c.AssetURL == "" {
		c.AssetURL = c.APIURL + "/assets"
	}
	return nil
}

// WithAPIURL returns a copy of c pointed at apiURL, as set by a command-line flag.
func (c Config) WithAPIURL(apiURL string) (Config, error) {
	if apiURL == "" {
		return c, nil
	}
	derived := c.AssetURL == c.APIURL+"/assets"
	c.APIURL = apiURL
	if derived {
		c.AssetURL = ""
	}
	if err := c.finish(); err != nil {
		return Config{}, err
	}
	return c, nil
}
