// Package config loads sqlterm configuration from defaults, a YAML file,
// SQLTERM_-prefixed environment variables, and command-line flags, in
// that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/sqlterm/sqlterm/internal/db"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "sqlterm.yaml"

// Config is the full application configuration.
type Config struct {
	Connection db.Config     `koanf:"connection"`
	History    HistoryConfig `koanf:"history"`
	UI         UIConfig      `koanf:"ui"`
	Verbose    bool          `koanf:"verbose"`
}

// HistoryConfig controls the persisted query history.
type HistoryConfig struct {
	MaxEntries int    `koanf:"max_entries"`
	Path       string `koanf:"path"`
}

// UIConfig controls run-loop presentation timing.
type UIConfig struct {
	// TickMS is the redraw interval in milliseconds.
	TickMS int `koanf:"tick_ms"`
	// LoadingTickMS is the shorter interval used while a query is in
	// flight, so the spinner animates smoothly.
	LoadingTickMS int `koanf:"loading_tick_ms"`
}

func defaults() map[string]any {
	return map[string]any{
		"connection.host":       "localhost",
		"connection.port":       1433,
		"connection.user":       "sa",
		"connection.password":   "",
		"connection.database":   "master",
		"connection.encrypt":    false,
		"connection.trust_cert": true,
		"history.max_entries":   1000,
		"history.path":          "",
		"ui.tick_ms":            250,
		"ui.loading_tick_ms":    80,
		"verbose":               false,
	}
}

// Load builds the configuration. cfgFile overrides the default config
// file location; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := cfgFile
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Double underscore separates nesting levels so snake_case keys
	// survive: SQLTERM_CONNECTION__TRUST_CERT -> connection.trust_cert.
	if err := k.Load(env.Provider("SQLTERM_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SQLTERM_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile looks for sqlterm.yaml in the working directory, then in
// the user config directory.
func findConfigFile() string {
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "sqlterm", ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
