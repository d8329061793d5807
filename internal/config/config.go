// Package config loads process configuration from the environment
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	DataDir       string        // where the sqlite database lives
	LogLevel      string        // logrus level name
	CheckInterval time.Duration // how often the daemon checks for a day change
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:      getEnvOrDefault("MEDTRACK_LOG_LEVEL", "info"),
		CheckInterval: time.Minute,
	}

	if v := os.Getenv("MEDTRACK_CHECK_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("MEDTRACK_CHECK_INTERVAL must be a positive number of seconds, got %q", v)
		}
		cfg.CheckInterval = time.Duration(secs) * time.Second
	}

	if cfg.DataDir = os.Getenv("MEDTRACK_DATA_DIR"); cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		cfg.DataDir = dir
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return cfg, nil
}

// DefaultDataDir returns the per-OS application data directory
func DefaultDataDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, "medtrack"), nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
