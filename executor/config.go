package executor

import (
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-executor/config"
	"github.com/zircuit-labs/zkr-go-executor/log"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

const (
	configPath          = "executor"
	defaultDrainTimeout = 30 * time.Second
)

// Config holds the settings read from the "executor" table.
type Config struct {
	Name         string        `koanf:"name"`
	PollInterval time.Duration `koanf:"poll_interval"`
	DrainTimeout time.Duration `koanf:"drain_timeout"`
	LogLevel     string        `koanf:"log_level"`
}

// DefaultConfig returns the settings used for anything not configured.
func DefaultConfig() Config {
	return Config{
		Name:         defaultName,
		PollInterval: defaultPollInterval,
		DrainTimeout: defaultDrainTimeout,
	}
}

// LoadConfig reads and validates the executor settings from cfg.
func LoadConfig(cfg *config.Configuration) (Config, error) {
	c := DefaultConfig()
	if err := cfg.Unmarshal(configPath, &c); err != nil {
		return Config{}, stacktrace.Wrap(err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings New would otherwise silently ignore.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return invalidArgument("poll_interval must be positive", slog.Duration("poll_interval", c.PollInterval))
	}
	if c.DrainTimeout <= 0 {
		return invalidArgument("drain_timeout must be positive", slog.Duration("drain_timeout", c.DrainTimeout))
	}
	return nil
}

// Options converts the settings to executor options.
func (c Config) Options() []Option {
	return []Option{
		WithName(c.Name),
		WithPollInterval(c.PollInterval),
	}
}

// TaskOptions converts the settings to options for NewTask.
func (c Config) TaskOptions() []TaskOption {
	return []TaskOption{
		WithDrainTimeout(c.DrainTimeout),
	}
}

// NewFromConfig loads the executor settings from cfg, applies the configured
// log level and starts an Executor. Options in opts take precedence.
func NewFromConfig(cfg *config.Configuration, opts ...Option) (*Executor, error) {
	c, err := LoadConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := log.SetLogLevel(c.LogLevel); err != nil {
		return nil, stacktrace.Wrap(err)
	}
	return New(append(c.Options(), opts...)...), nil
}
