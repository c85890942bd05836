// Package config loads the optional task-worktree TOML configuration.
//
// Resolution order, lowest to highest precedence: built-in defaults, the TOML
// file, TASK_WORKTREE_* environment variables, then command-line flags (applied
// by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables.
const (
	EnvConfigPath     = "TASK_WORKTREE_CONFIG"
	EnvDatabaseDriver = "TASK_WORKTREE_DATABASE_DRIVER"
	EnvDatabaseDSN    = "TASK_WORKTREE_DATABASE_DSN"
	EnvSettingsPath   = "TASK_WORKTREE_SETTINGS"
)

// appDir is the directory name used under the user config directory.
const appDir = "task-worktree"

// Config holds the task-worktree configuration.
type Config struct {
	DatabaseDriver string `toml:"database_driver"` // "sqlite3" or "pgx"
	DatabaseDSN    string `toml:"database_dsn"`
	SettingsPath   string `toml:"settings_path"`
	LogFormat      string `toml:"log_format"` // "text" or "json"
}

// Default returns the default configuration rooted at the user config directory.
// The SQLite database and settings.json sit beside config.toml.
func Default() Config {
	dir := baseDir()
	return Config{
		DatabaseDriver: "sqlite3",
		DatabaseDSN:    filepath.Join(dir, "projects.db"),
		SettingsPath:   filepath.Join(dir, "settings.json"),
		LogFormat:      "text",
	}
}

// Path returns the config file location.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return filepath.Join(baseDir(), "config.toml")
}

// Load reads the config file at Path and applies environment overrides.
// A missing file is not an error.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config file at path and applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		var raw Config
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return Default(), fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg = merge(cfg, raw)
	}

	cfg = merge(cfg, Config{
		DatabaseDriver: os.Getenv(EnvDatabaseDriver),
		DatabaseDSN:    os.Getenv(EnvDatabaseDSN),
		SettingsPath:   os.Getenv(EnvSettingsPath),
	})

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}

	cfg.DatabaseDSN, err = expandPath(cfg.DatabaseDSN)
	if err != nil {
		return Default(), fmt.Errorf("expand database_dsn: %w", err)
	}
	cfg.SettingsPath, err = expandPath(cfg.SettingsPath)
	if err != nil {
		return Default(), fmt.Errorf("expand settings_path: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	if c.DatabaseDriver != "sqlite3" && c.DatabaseDriver != "pgx" {
		return fmt.Errorf("invalid database_driver %q: must be \"sqlite3\" or \"pgx\"", c.DatabaseDriver)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q: must be \"text\" or \"json\"", c.LogFormat)
	}
	return nil
}

// merge returns base with every non-blank field of override applied.
func merge(base, override Config) Config {
	if v := strings.TrimSpace(override.DatabaseDriver); v != "" {
		base.DatabaseDriver = v
	}
	if v := strings.TrimSpace(override.DatabaseDSN); v != "" {
		base.DatabaseDSN = v
	}
	if v := strings.TrimSpace(override.SettingsPath); v != "" {
		base.SettingsPath = v
	}
	if v := strings.TrimSpace(override.LogFormat); v != "" {
		base.LogFormat = v
	}
	return base
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return appDir
	}
	return filepath.Join(dir, appDir)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
