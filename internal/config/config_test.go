package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default config file to be created: %v", err)
	}

	if cfg.Storage.Backend != "json" {
		t.Errorf("expected json backend default, got %q", cfg.Storage.Backend)
	}
	if cfg.Player.PollIntervalMillis != 500 {
		t.Errorf("expected 500ms poll interval default, got %d", cfg.Player.PollIntervalMillis)
	}
	if cfg.Player.AdvanceThreshold != 0.98 {
		t.Errorf("expected 0.98 advance threshold default, got %v", cfg.Player.AdvanceThreshold)
	}
	if cfg.Player.HistoryCapacity != 20 {
		t.Errorf("expected history capacity 20 default, got %d", cfg.Player.HistoryCapacity)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
backend = "sqlite"
sqlite_path = "/var/lib/groovy/groovy.db"

[player]
poll_interval_ms = 250
advance_threshold = 0.9
history_capacity = 50

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath != "/var/lib/groovy/groovy.db" {
		t.Errorf("storage section not applied: %+v", cfg.Storage)
	}
	if cfg.Player.PollIntervalMillis != 250 || cfg.Player.HistoryCapacity != 50 {
		t.Errorf("player section not applied: %+v", cfg.Player)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging section not applied: %+v", cfg.Logging)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[logging]
level = "warn"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn level, got %q", cfg.Logging.Level)
	}
	if cfg.Storage.SongsPath != "./songs.json" {
		t.Errorf("unset fields should keep defaults, got %q", cfg.Storage.SongsPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"sqlite backend valid", func(c *Config) { c.Storage.Backend = "sqlite" }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "yaml" }, true},
		{"json without songs path", func(c *Config) { c.Storage.SongsPath = "" }, true},
		{"json without playlist path", func(c *Config) { c.Storage.PlaylistPath = "" }, true},
		{"sqlite without db path", func(c *Config) {
			c.Storage.Backend = "sqlite"
			c.Storage.SQLitePath = ""
		}, true},
		{"zero poll interval", func(c *Config) { c.Player.PollIntervalMillis = 0 }, true},
		{"threshold above one", func(c *Config) { c.Player.AdvanceThreshold = 1.5 }, true},
		{"threshold at one", func(c *Config) { c.Player.AdvanceThreshold = 1.0 }, false},
		{"zero history capacity", func(c *Config) { c.Player.HistoryCapacity = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Player.HistoryCapacity = 100
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Player.HistoryCapacity != 100 {
		t.Errorf("expected history capacity 100 after reload, got %d", reloaded.Player.HistoryCapacity)
	}
}
