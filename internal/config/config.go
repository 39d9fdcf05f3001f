package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the persisted settings for note generation.
type Config struct {
	// IgnoredCharacters are stripped from naming values before unsafe
	// character substitution. An explicit empty list keeps every character.
	IgnoredCharacters []string `json:"ignored_characters"`
	EnableLogging     bool     `json:"enable_logging"`
	LogRetentionDays  int      `json:"log_retention_days"`
	WorkerCount       int      `json:"worker_count"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		IgnoredCharacters: []string{"[", "]"},
		EnableLogging:     true,
		LogRetentionDays:  30,
		WorkerCount:       8,
	}
}

// ConfigPath returns the path to the config file. CSVNOTES_CONFIG_DIR
// overrides the directory when set.
func ConfigPath() (string, error) {
	if dir := os.Getenv("CSVNOTES_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "config.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".csv-notes", "config.json"), nil
}

// Load reads the configuration from disk. Fields absent from the file keep
// their defaults, so configs written by older versions stay valid.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Guard against hand-edited values the pipeline cannot run with
	if cfg.LogRetentionDays <= 0 {
		cfg.LogRetentionDays = DefaultConfig().LogRetentionDays
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	return cfg, nil
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Ignored returns a provider that reads the live ignored character set, so
// edits made while the program runs take effect on the next sanitize call.
func (cfg *Config) Ignored() func() []string {
	return func() []string {
		return cfg.IgnoredCharacters
	}
}
