package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Player  PlayerConfig  `toml:"player"`
	Logging LoggingConfig `toml:"logging"`
}

// StorageConfig selects and locates the snapshot backend.
type StorageConfig struct {
	Backend         string `toml:"backend"` // "json" or "sqlite"
	SongsPath       string `toml:"songs_path"`
	PlaylistPath    string `toml:"playlist_path"`
	SQLitePath      string `toml:"sqlite_path"`
	WatchForChanges bool   `toml:"watch_for_changes"`
}

// PlayerConfig contains playback engine configuration.
type PlayerConfig struct {
	PollIntervalMillis int     `toml:"poll_interval_ms"`
	AdvanceThreshold   float64 `toml:"advance_threshold"`
	HistoryCapacity    int     `toml:"history_capacity"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:         "json",
			SongsPath:       "./songs.json",
			PlaylistPath:    "./playlist.json",
			SQLitePath:      "./groovy.db",
			WatchForChanges: true,
		},
		Player: PlayerConfig{
			PollIntervalMillis: 500,
			AdvanceThreshold:   0.98,
			HistoryCapacity:    20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Groovy Music Player Configuration
# This file contains all configuration options for the Groovy player engine.
# Edit the values below to customize your setup.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "json":
		if c.Storage.SongsPath == "" {
			return fmt.Errorf("storage songs_path cannot be empty")
		}
		if c.Storage.PlaylistPath == "" {
			return fmt.Errorf("storage playlist_path cannot be empty")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage sqlite_path cannot be empty")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be json or sqlite)", c.Storage.Backend)
	}

	if c.Player.PollIntervalMillis < 1 {
		return fmt.Errorf("player poll interval must be at least 1ms")
	}
	if c.Player.AdvanceThreshold <= 0 || c.Player.AdvanceThreshold > 1 {
		return fmt.Errorf("player advance threshold must be in (0, 1]")
	}
	if c.Player.HistoryCapacity < 1 {
		return fmt.Errorf("player history capacity must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}
