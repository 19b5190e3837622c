// Package daemon manages the planner daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Sync      SyncConfig      `toml:"sync"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ScheduleConfig controls planning and the status sweep.
type ScheduleConfig struct {
	Timezone string `toml:"timezone"` // IANA name; empty means the system zone
	Sweep    string `toml:"sweep"`    // cron spec for the overdue sweep
}

// SyncConfig controls the cloud sync.
type SyncConfig struct {
	Enabled     bool   `toml:"enabled"`
	DSN         string `toml:"dsn"`
	UserID      string `toml:"user_id"`
	Debounce    string `toml:"debounce"`
	MaxRetries  int    `toml:"max_retries"`
	PullOnStart bool   `toml:"pull_on_start"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"` // "info" or "off"
	File  string `toml:"file"`  // also log to this file when set
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7420,
			CORSOrigins: []string{"*"},
		},
		Schedule: ScheduleConfig{
			Sweep: "@every 1m",
		},
		Sync: SyncConfig{
			Debounce:    "1s",
			MaxRetries:  5,
			PullOnStart: true,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from ~/.planner/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(plannerHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.planner/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(plannerHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Location resolves Schedule.Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	return loc, nil
}

// SyncEnabled reports whether cloud sync is fully configured.
func (c Config) SyncEnabled() bool {
	return c.Sync.Enabled && c.Sync.DSN != "" && c.Sync.UserID != ""
}

// setupLogging points the standard logger at the configured sinks. The
// returned closer releases the log file, if any.
func setupLogging(cfg LoggingConfig) (io.Closer, error) {
	if cfg.Level == "off" {
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	}
	if cfg.File == "" {
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// plannerHome returns the planner data directory.
func plannerHome() string {
	if env := os.Getenv("PLANNER_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".planner")
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
