package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/nicebartender/bci-bridge/bridge"
)

type Config struct {
	ConsumerURL       string        `env:"BCI_CONSUMER_URL"        envDefault:"http://localhost:8080"`
	ListenAddr        string        `env:"BCI_ADDR"`
	DBPath            string        `env:"BCI_DB"                  envDefault:"bci-bridge.db"`
	Token             string        `env:"BCI_TOKEN"`
	Threshold         float64       `env:"BCI_THRESHOLD"           envDefault:"0.4"`
	Cooldown          time.Duration `env:"BCI_COOLDOWN"            envDefault:"200ms"`
	PollInterval      time.Duration `env:"BCI_POLL_INTERVAL"       envDefault:"5s"`
	ProbeTimeout      time.Duration `env:"BCI_PROBE_TIMEOUT"       envDefault:"2s"`
	DeliveryTimeout   time.Duration `env:"BCI_DELIVERY_TIMEOUT"    envDefault:"2s"`
	CooldownOnAttempt bool          `env:"BCI_COOLDOWN_ON_ATTEMPT" envDefault:"true"`
	LogLevel          string        `env:"BCI_LOG_LEVEL"           envDefault:"info"`
}

// LoadConfig reads the environment. Command-line flags bound with
// BindFlags take precedence.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultAddr()
	}
	return cfg, nil
}

func defaultAddr() string {
	// Railway, Render, etc. set PORT
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8090"
}

func (c *Config) BindFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&c.ConsumerURL, "consumer", c.ConsumerURL, "Consumer (game) base URL")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite dispatch log path (empty disables)")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "Minimum classifier strength to forward")
	fs.DurationVar(&c.Cooldown, "cooldown", c.Cooldown, "Minimum gap between two identical commands")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "How long a liveness check stays valid")
	fs.DurationVar(&c.ProbeTimeout, "probe-timeout", c.ProbeTimeout, "Timeout for GET /status")
	fs.DurationVar(&c.DeliveryTimeout, "delivery-timeout", c.DeliveryTimeout, "Timeout for POST /command")
	fs.BoolVar(&c.CooldownOnAttempt, "cooldown-on-attempt", c.CooldownOnAttempt, "Start the cooldown when a delivery is attempted, not when it succeeds")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

func (c Config) Policy() bridge.Policy {
	return bridge.Policy{
		Threshold:         c.Threshold,
		Cooldown:          c.Cooldown,
		PollInterval:      c.PollInterval,
		ProbeTimeout:      c.ProbeTimeout,
		DeliveryTimeout:   c.DeliveryTimeout,
		CooldownOnAttempt: c.CooldownOnAttempt,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ConsumerURL) == "" {
		return fmt.Errorf("consumer URL is required")
	}
	if _, err := c.slogLevel(); err != nil {
		return err
	}
	return c.Policy().Validate()
}

func (c Config) slogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
