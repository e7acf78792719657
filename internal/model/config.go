package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the plan generator integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// AlertConfig tunes when and how often due-state evaluation runs.
type AlertConfig struct {
	// DebounceSec is how long to wait after the last task-list change
	// before re-evaluating alerts. The timer restarts on every change.
	DebounceSec int `mapstructure:"debounce_sec" yaml:"debounce_sec"`

	// RecheckIntervalSec is the period of the background re-evaluation,
	// so date rollover raises alerts without any user action.
	RecheckIntervalSec int `mapstructure:"recheck_interval_sec" yaml:"recheck_interval_sec"`

	// UpcomingWindowDays is how many days ahead a pending task counts as
	// upcoming, boundary inclusive.
	UpcomingWindowDays int `mapstructure:"upcoming_window_days" yaml:"upcoming_window_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DBPath is the SQLite file backing the persistent store.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// LogPath is the file the structured logger writes to; the terminal
	// itself belongs to the UI.
	LogPath string `mapstructure:"log_path" yaml:"log_path"`

	AI     AIConfig    `mapstructure:"ai" yaml:"ai"`
	Alerts AlertConfig `mapstructure:"alerts" yaml:"alerts"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/edificaflow/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "edificaflow", "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "edificaflow")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath:  filepath.Join(configDir(), "edificaflow.db"),
		LogPath: filepath.Join(configDir(), "edificaflow.log"),
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Alerts: AlertConfig{
			DebounceSec:        2,
			RecheckIntervalSec: 900,
			UpcomingWindowDays: 2,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("log_path", defaults.LogPath)
	v.SetDefault("ai.model", defaults.AI.Model)
	v.SetDefault("ai.max_tokens", defaults.AI.MaxTokens)
	v.SetDefault("alerts.debounce_sec", defaults.Alerts.DebounceSec)
	v.SetDefault("alerts.recheck_interval_sec", defaults.Alerts.RecheckIntervalSec)
	v.SetDefault("alerts.upcoming_window_days", defaults.Alerts.UpcomingWindowDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("log_path", cfg.LogPath)
	v.Set("ai", cfg.AI)
	v.Set("alerts", cfg.Alerts)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
