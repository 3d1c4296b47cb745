package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	// Path is the SQLite database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// SyncConfig holds polling and fetch-window settings shared by all sources.
type SyncConfig struct {
	// IntervalMinutes is how often the background poller runs.
	IntervalMinutes int `mapstructure:"interval_minutes" yaml:"interval_minutes"`

	// LookbackDays bounds how far back each fetch searches.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days"`

	// MaxResults caps the number of messages fetched per source per run.
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`
}

// LogConfig holds logging settings for the headless commands.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration. Mail sources are
// not configured here; they live in the database and are managed from the
// settings view.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/ordertracker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "ordertracker", "config.yaml")
}

// DefaultDatabasePath returns the default location of the order database,
// located at ~/.local/share/ordertracker/orders.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "orders.db")
	}
	return filepath.Join(home, ".local", "share", "ordertracker", "orders.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path: DefaultDatabasePath(),
		},
		Sync: SyncConfig{
			IntervalMinutes: 15,
			LookbackDays:    30,
			MaxResults:      100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults apply for keys absent from the file.
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("sync.interval_minutes", 15)
	v.SetDefault("sync.lookback_days", 30)
	v.SetDefault("sync.max_results", 100)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
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

	v.Set("database", cfg.Database)
	v.Set("sync", cfg.Sync)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
