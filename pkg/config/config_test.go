package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_Malformed(t *testing.T) {
	reader := strings.NewReader(`{ "provider_url": `)
	_, err := LoadConfig(reader)
	if err == nil {
		t.Error("Expected error loading malformed config, got nil")
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSaveConfig(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "walletdash.json")

	cfg := Default()
	cfg.ProviderURL = "http://localhost:8545"
	cfg.RefreshIntervalSeconds = 0

	if err := SaveConfig(cfg, tmpPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
	if loaded.RefreshInterval() != 0 {
		t.Errorf("explicit zero refresh interval should survive a reload")
	}

	// A second save backs up the first file.
	cfg.ServerPort = 9090
	if err := SaveConfig(cfg, tmpPath); err != nil {
		t.Fatalf("second SaveConfig failed: %v", err)
	}
	backups, _ := filepath.Glob(tmpPath + ".*.bak")
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}
	if err := RestoreLastBackup(tmpPath); err != nil {
		t.Fatalf("RestoreLastBackup failed: %v", err)
	}
	restored, _ := LoadConfigFromFile(tmpPath)
	if restored.ServerPort != DefaultServerPort {
		t.Errorf("expected restored port %d, got %d", DefaultServerPort, restored.ServerPort)
	}
}

func TestSaveConfig_RejectsInvalid(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "walletdash.json")
	cfg := Default()
	cfg.ProviderURL = "ftp://wallet"
	if err := SaveConfig(cfg, tmpPath); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Error("invalid config must not be written")
	}
}

func TestLoadConfig_TableDriven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		jsonContent string
		expectError bool
		validate    func(*testing.T, Config)
	}{
		{
			name: "Full Config",
			jsonContent: `{
				"provider_url": " http://127.0.0.1:8545 ",
				"provider_poll_seconds": 5,
				"refresh_interval_seconds": 60,
				"server_port": 9000,
				"log_level": "debug",
				"log_json": true,
				"log_file": "/tmp/walletdash.log"
			}`,
			validate: func(t *testing.T, c Config) {
				if c.ProviderURL != "http://127.0.0.1:8545" {
					t.Errorf("provider url not trimmed: %q", c.ProviderURL)
				}
				if c.PollInterval().Seconds() != 5 || c.RefreshIntervalSeconds != 60 {
					t.Errorf("interval mismatch: %+v", c)
				}
				if c.ServerPort != 9000 || c.LogLevel != "debug" || !c.LogJSON || c.LogFile == "" {
					t.Errorf("field mismatch: %+v", c)
				}
			},
		},
		{
			name:        "Partial Config (Defaults)",
			jsonContent: `{"provider_url": "ws://localhost:8546"}`,
			validate: func(t *testing.T, c Config) {
				if c.ProviderPollSeconds != DefaultProviderPollSeconds {
					t.Errorf("Expected default poll %d, got %d", DefaultProviderPollSeconds, c.ProviderPollSeconds)
				}
				if c.RefreshIntervalSeconds != DefaultRefreshIntervalSeconds {
					t.Errorf("Expected default refresh %d, got %d", DefaultRefreshIntervalSeconds, c.RefreshIntervalSeconds)
				}
				if c.ServerPort != DefaultServerPort || c.LogLevel != DefaultLogLevel {
					t.Errorf("defaults not applied: %+v", c)
				}
			},
		},
		{
			name:        "Malformed JSON",
			jsonContent: `{ "server_port": [ unclosed_array`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := LoadConfig(strings.NewReader(tt.jsonContent))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"https provider", func(c *Config) { c.ProviderURL = "https://wallet.example" }, true},
		{"bad scheme", func(c *Config) { c.ProviderURL = "file:///etc/passwd" }, false},
		{"zero poll", func(c *Config) { c.ProviderPollSeconds = 0 }, false},
		{"negative refresh", func(c *Config) { c.RefreshIntervalSeconds = -1 }, false},
		{"port out of range", func(c *Config) { c.ServerPort = 70000 }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "verbose" }, false},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSaveConfig_PermissionError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	tmpDir := t.TempDir()
	if err := os.Chmod(tmpDir, 0500); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(tmpDir, 0700) }()

	configPath := filepath.Join(tmpDir, "config.json")
	if err := SaveConfig(Default(), configPath); err == nil {
		t.Error("Expected permission error, got nil")
	}
}
