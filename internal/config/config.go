// Package config loads process configuration. The stats reset hour and
// timezone are explicit configuration rather than ambient locale, so
// boundary behavior is reproducible in tests and across machines.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Backend names for the settings store.
const (
	BackendFile      = "file"
	BackendEncrypted = "encrypted"
)

// Config holds all process-wide settings.
type Config struct {
	DataDir    string        `mapstructure:"data_dir"`
	Backend    string        `mapstructure:"backend"`
	ResetHour  int           `mapstructure:"reset_hour"`
	Timezone   string        `mapstructure:"timezone"`
	SkipWindow time.Duration `mapstructure:"skip_window"`
	LogPath    string        `mapstructure:"log_path"`
}

// Load reads configuration from defaults, an optional config.yaml in
// the data dir, and BREATHER_* environment variables, in increasing
// precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("backend", BackendFile)
	v.SetDefault("reset_hour", 4)
	v.SetDefault("timezone", "Local")
	v.SetDefault("skip_window", 5*time.Second)
	v.SetDefault("log_path", "")

	v.SetEnvPrefix("BREATHER")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return fmt.Errorf("reset_hour %d out of range 0-23", c.ResetHour)
	}
	if c.Backend != BackendFile && c.Backend != BackendEncrypted {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.SkipWindow <= 0 {
		return fmt.Errorf("skip_window must be positive, got %s", c.SkipWindow)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".breatherd"
	}
	return filepath.Join(home, ".breatherd")
}
