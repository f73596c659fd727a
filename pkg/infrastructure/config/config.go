// Package config loads the service configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the process needs at startup.
type Config struct {
	// DataDir is where the embedded database lives. Empty selects the
	// in-memory store.
	DataDir string `yaml:"data_dir"`

	// ListenAddr is the HTTP bind address for the serve command.
	ListenAddr string `yaml:"listen_addr"`

	// MinLockMinutes seeds the stored settings on first run.
	MinLockMinutes int `yaml:"min_lock_minutes"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		MinLockMinutes: 30,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load reads a YAML config file, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading config file %q: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("while parsing config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("while validating config file %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the system cannot work with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.MinLockMinutes < 0 {
		return fmt.Errorf("min_lock_minutes must not be negative, got %d", c.MinLockMinutes)
	}
	return nil
}
