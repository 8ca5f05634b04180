// Package config loads quotadesk settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/insights"
	"github.com/sadopc/quotadesk/internal/planning"
)

// Config holds all quotadesk configuration.
type Config struct {
	DatabasePath string `yaml:"database_path"`
	Timezone     string `yaml:"timezone"`

	Workday WorkdayConfig `yaml:"workday"`

	// Role decides whether diagnoses carry the team reading.
	Role     string `yaml:"role"` // member, leader, coach, admin
	TeamSize int    `yaml:"team_size"`

	Logging LoggingConfig `yaml:"logging"`
	Remote  RemoteConfig  `yaml:"remote"`
}

// WorkdayConfig bounds the civil-time window used for pacing.
type WorkdayConfig struct {
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // debug, info, warn, error
	File    string `yaml:"file"`
}

// RemoteConfig points at the PostgreSQL database used for sync.
type RemoteConfig struct {
	PostgresURL string `yaml:"postgres_url"`
	Timeout     string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration. DatabasePath and the
// log file are resolved by the caller when left empty.
func DefaultConfig() *Config {
	return &Config{
		Timezone: activity.DefaultTimezone,
		Workday: WorkdayConfig{
			StartHour: planning.DefaultWorkday.StartHour,
			EndHour:   planning.DefaultWorkday.EndHour,
		},
		Role: string(insights.RoleMember),
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Remote: RemoteConfig{
			Timeout: "15s",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/quotadesk/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "quotadesk", "config.yaml"), nil
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.DatabasePath = getEnv("QUOTADESK_DB", c.DatabasePath)
	c.Timezone = getEnv("QUOTADESK_TZ", c.Timezone)
	c.Role = getEnv("QUOTADESK_ROLE", c.Role)
	c.TeamSize = getIntEnv("QUOTADESK_TEAM_SIZE", c.TeamSize)
	c.Remote.PostgresURL = getEnv("QUOTADESK_POSTGRES_URL", c.Remote.PostgresURL)
	c.Logging.Level = getEnv("QUOTADESK_LOG_LEVEL", c.Logging.Level)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := activity.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.Workday.StartHour < 0 || c.Workday.EndHour > 24 || c.Workday.StartHour >= c.Workday.EndHour {
		errs = append(errs, fmt.Errorf("workday: need 0 <= start_hour < end_hour <= 24, got %d-%d",
			c.Workday.StartHour, c.Workday.EndHour))
	}
	if _, err := insights.ParseRole(c.Role); err != nil {
		errs = append(errs, fmt.Errorf("role: %w", err))
	}
	if c.TeamSize < 0 {
		errs = append(errs, fmt.Errorf("team_size: must not be negative, got %d", c.TeamSize))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Remote.Timeout != "" {
		if _, err := time.ParseDuration(c.Remote.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("remote.timeout: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Location returns the configured civil timezone.
func (c *Config) Location() (*time.Location, error) {
	return activity.LoadLocation(c.Timezone)
}

// WorkdayWindow returns the pacing window.
func (c *Config) WorkdayWindow() planning.Workday {
	return planning.Workday{StartHour: c.Workday.StartHour, EndHour: c.Workday.EndHour}
}

// UserRole returns the parsed role, defaulting to member.
func (c *Config) UserRole() insights.Role {
	r, err := insights.ParseRole(c.Role)
	if err != nil {
		return insights.RoleMember
	}
	return r
}

// RemoteTimeout returns the sync timeout as a duration.
func (c *Config) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
