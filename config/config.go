// Package config loads layered runtime configuration.
//
// Settings come from a TOML file holding one table per environment. The
// default table is always loaded, the table named by the <prefix>ENV
// variable is merged over it, and <prefix>-prefixed environment variables
// are merged last.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	koanffs "github.com/knadh/koanf/providers/fs"

	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

const (
	defaultEnv          = "default"
	defaultEnvPrefix    = "CFG_"
	defaultEnvSeparator = "_"
	defaultSeparator    = "."
	defaultSettingsPath = "data/settings.toml"

	envVarName = "ENV"
)

type options struct {
	defaultEnv   string
	envPrefix    string
	filepath     string
	envSeparator string
}

// Option is an option func for NewConfiguration.
type Option func(options *options)

// WithDefaultEnv sets the name of the table every environment inherits from.
func WithDefaultEnv(env string) Option {
	return func(options *options) {
		options.defaultEnv = env
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(options *options) {
		options.envPrefix = prefix
	}
}

// WithFilePath sets the path of the TOML file within the file system.
func WithFilePath(path string) Option {
	return func(options *options) {
		options.filepath = path
	}
}

// WithEnvSeparator sets the separator that marks nesting in variable names.
func WithEnvSeparator(separator string) Option {
	return func(options *options) {
		options.envSeparator = separator
	}
}

// Configuration is the merged result of every source.
type Configuration struct {
	k   *koanf.Koanf
	env string
}

func persistent(err error, attrs ...slog.Attr) error {
	err = errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
	if len(attrs) > 0 {
		err = errcontext.Add(err, attrs...)
	}
	return err
}

// NewConfigurationFromMap builds a Configuration from a map keyed by dotted paths.
func NewConfigurationFromMap(cfg map[string]any) (*Configuration, error) {
	k := koanf.New(defaultSeparator)
	if err := k.Load(confmap.Provider(cfg, defaultSeparator), nil); err != nil {
		return nil, persistent(err)
	}
	return &Configuration{k: k, env: defaultEnv}, nil
}

// NewConfiguration loads configuration from f and the environment.
// A nil f loads environment variables only.
func NewConfiguration(f fs.FS, opts ...Option) (*Configuration, error) {
	options := options{
		defaultEnv:   defaultEnv,
		envPrefix:    defaultEnvPrefix,
		filepath:     defaultSettingsPath,
		envSeparator: defaultEnvSeparator,
	}
	for _, opt := range opts {
		opt(&options)
	}

	environment := os.Getenv(options.envPrefix + envVarName)
	merged := koanf.New(defaultSeparator)

	if f != nil {
		file := koanf.New(defaultSeparator)
		if err := file.Load(koanffs.Provider(f, options.filepath), toml.Parser()); err != nil {
			return nil, persistent(err, slog.String("path", options.filepath))
		}

		if err := mergeTable(merged, file, options.defaultEnv); err != nil {
			return nil, err
		}
		if environment != "" && environment != options.defaultEnv {
			if err := mergeTable(merged, file, environment); err != nil {
				return nil, err
			}
		}
	}

	if err := merged.Load(env.Provider(options.envPrefix, defaultSeparator, envToKey(options)), nil); err != nil {
		return nil, persistent(err)
	}

	if environment == "" {
		environment = options.defaultEnv
	}
	return &Configuration{k: merged, env: environment}, nil
}

// mergeTable loads the table called name from file into dst.
func mergeTable(dst, file *koanf.Koanf, name string) error {
	if !file.Exists(name) {
		return persistent(errors.New("environment table not found"), slog.String("env", name))
	}
	table, ok := file.Get(name).(map[string]any)
	if !ok {
		return persistent(errors.New("environment entry is not a table"), slog.String("env", name))
	}
	if err := dst.Load(confmap.Provider(table, defaultSeparator), nil); err != nil {
		return persistent(err, slog.String("env", name))
	}
	return nil
}

// Unmarshal decodes the settings rooted at path into a.
// Fields of a with no matching setting keep their value.
func (c *Configuration) Unmarshal(path string, a any) error {
	if err := c.k.Unmarshal(path, a); err != nil {
		return persistent(err, slog.String("path", path))
	}
	return nil
}

// Exists reports whether any setting is present at path.
func (c *Configuration) Exists(path string) bool {
	return c.k.Exists(path)
}

// Environment returns the name of the selected environment.
func (c *Configuration) Environment() string {
	return c.env
}

// envToKey maps PREFIX_EXECUTOR_NAME to executor.name.
func envToKey(options options) func(string) string {
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, options.envPrefix))
		return strings.ReplaceAll(s, options.envSeparator, defaultSeparator)
	}
}
