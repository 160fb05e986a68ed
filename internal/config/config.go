// Package config loads the stickerd configuration and resolves the on-disk
// layout of the data directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents ~/.stickerd/config.toml. All fields are optional; zero
// values fall back to defaults under the data directory.
type Config struct {
	DataDir     string `toml:"data_dir"`
	StickersDir string `toml:"stickers_dir"`
	DeviceName  string `toml:"device_name"`
}

// Default returns the built-in configuration rooted at ~/.stickerd.
func Default() *Config {
	home, _ := os.UserHomeDir()
	cfg := &Config{DataDir: filepath.Join(home, ".stickerd")}
	cfg.applyDefaults()
	return cfg
}

// Load reads config from the given path, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, ".stickerd")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func (c *Config) applyDefaults() {
	if c.StickersDir == "" {
		c.StickersDir = filepath.Join(c.DataDir, "stickers")
	}
	if c.DeviceName == "" {
		c.DeviceName = "stickerd"
	}
}

// DBPath returns the app-owned catalog database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "stickerd.db")
}

// CredentialDBPath returns the whatsmeow credential store path.
func (c *Config) CredentialDBPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "stickerd.log")
}

// EnsureDirs creates the data directory tree with owner-only permissions.
func (c *Config) EnsureDirs() error {
	for _, d := range []string{c.DataDir, c.StickersDir, filepath.Dir(c.LogPath())} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPath returns the global config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".stickerd", "config.toml")
}
