package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration.
type Config struct {
	CodexHome   string `json:"-"`
	SessionsDir string `json:"sessions_dir"`
	DataDir     string `json:"-"`
	DBPath      string `json:"-"`
	Editor      string `json:"editor"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	codexHome := filepath.Join(home, ".codex")
	dataDir := filepath.Join(home, ".codexa")
	return Config{
		CodexHome:   codexHome,
		SessionsDir: filepath.Join(codexHome, "sessions"),
		DataDir:     dataDir,
		DBPath:      filepath.Join(dataDir, "catalog.db"),
	}, nil
}

// Load builds a Config by layering: defaults < config file < env.
// Subcommands layer their own explicitly-set flags on top.
func Load() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// Env can relocate the data dir, which is where the config file
	// lives, so resolve that before reading the file.
	if v := os.Getenv("CODEXA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	cfg.DBPath = filepath.Join(cfg.DataDir, "catalog.db")
	return cfg, nil
}

// ConfigPath returns the path of the JSON config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		SessionsDir string `json:"sessions_dir"`
		Editor      string `json:"editor"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.SessionsDir != "" {
		c.SessionsDir = file.SessionsDir
	}
	if file.Editor != "" {
		c.Editor = file.Editor
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("CODEX_HOME"); v != "" {
		c.CodexHome = v
		c.SessionsDir = filepath.Join(v, "sessions")
	}
	if v := os.Getenv("CODEXA_SESSIONS_DIR"); v != "" {
		c.SessionsDir = v
	}
}

// ResolveDataDir returns the effective data directory by applying
// defaults and environment overrides, without reading any files.
func ResolveDataDir() (string, error) {
	cfg, err := Default()
	if err != nil {
		return "", err
	}
	if v := os.Getenv("CODEXA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return cfg.DataDir, nil
}

// WriteContents replaces the config file with the given text. The
// text must already be valid JSON; callers validate before writing.
func (c *Config) WriteContents(text string) error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), []byte(text), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
