// Package config loads wmiq settings from defaults, an optional YAML file
// and WMIQ_* environment variables, in increasing order of precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
// WMIQ_LOG_LEVEL sets log.level.
const EnvPrefix = "WMIQ_"

// Config holds the settings shared by all commands.
type Config struct {
	// Namespace is the WMI namespace live sessions connect to.
	Namespace string `mapstructure:"namespace"`
	// Host is the machine live sessions connect to. Empty means local.
	Host string `mapstructure:"host"`
	// Database is the snapshot store path.
	Database string `mapstructure:"database"`
	// Snapshot selects the snapshot to query, by ID or name. Empty selects
	// the most recent one.
	Snapshot string `mapstructure:"snapshot"`
	// Format is the output format: text or json.
	Format string `mapstructure:"format"`
	// Parallel bounds how many classes a capture queries at once.
	Parallel int `mapstructure:"parallel"`
	// Rate caps how many class queries a capture starts per second.
	// Zero means no cap.
	Rate float64 `mapstructure:"rate"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Namespace: `root\cimv2`,
		Database:  "wmiq.db",
		Format:    "text",
		Parallel:  1,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration. path names an optional YAML config file;
// when empty no file is read.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("namespace", def.Namespace)
	v.SetDefault("host", def.Host)
	v.SetDefault("database", def.Database)
	v.SetDefault("snapshot", def.Snapshot)
	v.SetDefault("format", def.Format)
	v.SetDefault("parallel", def.Parallel)
	v.SetDefault("rate", def.Rate)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Iterate the environment rather than AutomaticEnv so that nested keys
	// reach Unmarshal without being declared.
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		prop := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, EnvPrefix), "_", "."))
		v.Set(prop, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	validFormats   = []string{"text", "json"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks that every setting has an allowed value.
func (c Config) Validate() error {
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, validFormats)
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format %q: must be one of %v", c.Log.Format, validFormats)
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log level %q: must be one of %v", c.Log.Level, validLogLevels)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("invalid parallel %d: must be at least 1", c.Parallel)
	}
	if c.Rate < 0 {
		return fmt.Errorf("invalid rate %v: must not be negative", c.Rate)
	}
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}
