// Package config carries the daemon and CLI configuration. Defaults are
// rooted at ~/.traitdex and can be overridden by ~/.traitdex/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/traitdex/traitdex/internal/assets"
	"github.com/traitdex/traitdex/internal/watcher"
)

type Config struct {
	SocketPath   string `yaml:"socket_path"`
	DatabasePath string `yaml:"database_path"`

	// DataDir is where the documentation generator drops registration
	// assets; SpoolDir buffers publishes made while no daemon is running.
	DataDir  string `yaml:"data_dir"`
	SpoolDir string `yaml:"spool_dir"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Assets  assets.Config  `yaml:"assets"`
	Watcher watcher.Config `yaml:"watcher"`
}

func baseDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".traitdex")
}

func Default() *Config {
	base := baseDir()
	return &Config{
		SocketPath:   filepath.Join(base, "daemon.sock"),
		DatabasePath: filepath.Join(base, "registry.db"),
		DataDir:      filepath.Join(base, "data"),
		SpoolDir:     filepath.Join(base, "spool"),
		LogLevel:     "info",
		LogFormat:    "text",
		Assets:       assets.DefaultConfig(),
		Watcher:      watcher.DefaultConfig(),
	}
}

// Load returns the defaults overlaid with ~/.traitdex/config.yaml when the
// file exists. A missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(baseDir(), "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		filepath.Dir(c.SocketPath),
		filepath.Dir(c.DatabasePath),
		c.DataDir,
		c.SpoolDir,
	} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
