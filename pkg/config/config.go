package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const ConfigFileName = ".walletdash.json"

const (
	DefaultProviderPollSeconds    = 2
	DefaultRefreshIntervalSeconds = 30
	DefaultServerPort             = 8080
	DefaultLogLevel               = "info"
)

// Config holds application-wide settings.
type Config struct {
	// ProviderURL is the wallet JSON-RPC endpoint. Empty means no wallet
	// is injected.
	ProviderURL            string `json:"provider_url"`
	ProviderPollSeconds    int    `json:"provider_poll_seconds"`
	RefreshIntervalSeconds int    `json:"refresh_interval_seconds"`
	ServerPort             int    `json:"server_port"`
	LogLevel               string `json:"log_level"`
	LogJSON                bool   `json:"log_json"`
	LogFile                string `json:"log_file,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ProviderPollSeconds:    DefaultProviderPollSeconds,
		RefreshIntervalSeconds: DefaultRefreshIntervalSeconds,
		ServerPort:             DefaultServerPort,
		LogLevel:               DefaultLogLevel,
	}
}

// PollInterval is how often the provider is polled for account and network
// changes.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.ProviderPollSeconds) * time.Second
}

// RefreshInterval is the periodic refetch interval. Zero disables it.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Validate checks the values a running dashboard depends on.
func (c Config) Validate() error {
	if c.ProviderURL != "" {
		u, err := url.Parse(c.ProviderURL)
		if err != nil {
			return fmt.Errorf("validation failed: provider_url: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return fmt.Errorf("validation failed: provider_url scheme %q is not http(s) or ws(s)", u.Scheme)
		}
	}
	if c.ProviderPollSeconds <= 0 {
		return fmt.Errorf("validation failed: provider_poll_seconds must be positive, got %d", c.ProviderPollSeconds)
	}
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("validation failed: refresh_interval_seconds must not be negative, got %d", c.RefreshIntervalSeconds)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("validation failed: server_port %d out of range", c.ServerPort)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("validation failed: unknown log_level %q", c.LogLevel)
	}
	return nil
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfigFromFile reads path. A missing file yields the defaults.
func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		ProviderURL            string  `json:"provider_url"`
		ProviderPollSeconds    *int    `json:"provider_poll_seconds"`
		RefreshIntervalSeconds *int    `json:"refresh_interval_seconds"`
		ServerPort             *int    `json:"server_port"`
		LogLevel               *string `json:"log_level"`
		LogJSON                *bool   `json:"log_json"`
		LogFile                string  `json:"log_file"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	cfg.ProviderURL = strings.TrimSpace(raw.ProviderURL)
	cfg.LogFile = raw.LogFile
	if raw.ProviderPollSeconds != nil {
		cfg.ProviderPollSeconds = *raw.ProviderPollSeconds
	}
	if raw.RefreshIntervalSeconds != nil {
		cfg.RefreshIntervalSeconds = *raw.RefreshIntervalSeconds
	}
	if raw.ServerPort != nil {
		cfg.ServerPort = *raw.ServerPort
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogJSON != nil {
		cfg.LogJSON = *raw.LogJSON
	}
	return cfg, nil
}

// SaveConfig validates cfg, backs up the existing file and atomically
// replaces it.
func SaveConfig(cfg Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
