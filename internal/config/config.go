// Package config loads the `logica.yaml` project file, using the same
// confmap defaults -> file -> env -> posflag koanf provider chain a
// cobra-based CLI typically assembles, simplified to the handful of
// settings §9's Design Notes names (search_paths, default_engine,
// per-engine connections, flag_overrides, display_mode).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultEngine is used when neither the config file, LOGICA_DEFAULT_ENGINE,
// nor a changed --default-engine flag passed to Load name one.
const DefaultEngine = "sqlite"

// DefaultDisplayMode is used when neither the config file nor
// LOGICA_DISPLAY_MODE names one.
const DefaultDisplayMode = "none"

// EnvPrefix is the prefix koanf strips from environment variables before
// lower-casing the remainder into a config key (§6's LOGICA_* family).
const EnvPrefix = "LOGICA_"

// Config is the fully resolved project configuration, §9's Config
// struct.
type Config struct {
	// SearchPaths are import roots searched in order, seeded from
	// LOGICAPATH (colon-separated) when the config file does not set
	// search_paths explicitly.
	SearchPaths []string `koanf:"search_paths"`
	// DefaultEngine is the engine named by default_engine. The CLI
	// commands do not read it: they take the engine from the program's
	// @Engine annotation.
	DefaultEngine string `koanf:"default_engine"`
	// Connections maps an engine name ("sqlite", "duckdb", "psql") to its
	// connection string (a file path, or a libpq conninfo for psql).
	Connections map[string]string `koanf:"connections"`
	// FlagOverrides holds the flag_overrides values. The CLI commands do
	// not pass them to the compiler; @DefineFlag flags take their values
	// from the command line only.
	FlagOverrides map[string]string `koanf:"flag_overrides"`
	// DisplayMode holds the display_mode value ("none", "ascii", or
	// "tty"). The CLI commands do not read it: run and run_to_csv use no
	// display and run_in_terminal always uses the tty renderer.
	DisplayMode string `koanf:"display_mode"`
}

// findConfigFile resolves which file to load: an explicit path, else
// ./logica.yaml, else ./logica.yml, else none.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"logica.yaml", "logica.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds a Config from, in ascending precedence: built-in defaults,
// the project's logica.yaml, LOGICA_* environment variables, and any
// cobra flags the caller passes (only flags the user actually set on the
// command line participate, via pflag's Changed bit).
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"default_engine": DefaultEngine,
		"display_mode":   DefaultDisplayMode,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}

	if resolved := findConfigFile(cfgFile); resolved != "" {
		if err := k.Load(file.Provider(resolved), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", resolved, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flag overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if len(cfg.SearchPaths) == 0 {
		if raw := os.Getenv("LOGICAPATH"); raw != "" {
			cfg.SearchPaths = strings.Split(raw, ":")
		}
	}
	if cfg.DefaultEngine == "" {
		cfg.DefaultEngine = DefaultEngine
	}
	if cfg.DisplayMode == "" {
		cfg.DisplayMode = DefaultDisplayMode
	}
	if cfg.Connections == nil {
		cfg.Connections = map[string]string{}
	}
	if _, ok := cfg.Connections["psql"]; !ok {
		if dsn := os.Getenv("LOGICA_PSQL_CONNECTION"); dsn != "" {
			cfg.Connections["psql"] = dsn
		}
	}
	if cfg.FlagOverrides == nil {
		cfg.FlagOverrides = map[string]string{}
	}

	return &cfg, nil
}

// ConnectionFor returns the configured connection string for engine,
// empty if none was set (a backend's Open then falls back to its own
// in-memory default).
func (c *Config) ConnectionFor(engine string) string {
	return c.Connections[engine]
}
