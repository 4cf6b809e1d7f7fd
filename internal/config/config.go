// Package config loads and persists notekit's YAML configuration. A project
// keeps its settings in .notekit.yaml at the working-tree root; a global
// fallback lives in the user's home directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kmoran/notekit/internal/batch"
)

// FileName is the configuration file name searched for in the working
// directory and in $HOME.
const FileName = ".notekit.yaml"

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Scan    ScanConfig    `yaml:"scan"`
	Release ReleaseConfig `yaml:"release"`

	path string
}

// LoggingConfig mirrors logging.Config for the file format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScanConfig controls vault scanning.
type ScanConfig struct {
	// BatchSize bounds how many files are read concurrently.
	BatchSize int `yaml:"batch_size"`
}

// ReleaseConfig points at the plugin's release metadata files.
type ReleaseConfig struct {
	Manifest string `yaml:"manifest"`
	Versions string `yaml:"versions"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Scan:    ScanConfig{BatchSize: batch.DefaultSize},
		Release: ReleaseConfig{Manifest: "manifest.json", Versions: "versions.json"},
	}
}

// Load finds and reads the configuration, looking in the current directory
// first and in $HOME second. When no file exists the defaults are returned.
func Load() (*Config, error) {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, FileName))
	}

	for _, path := range candidates {
		cfg, err := LoadFrom(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return New(), nil
}

// LoadFrom reads the configuration at path. Fields absent from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the rest of the program would
// reject later.
func (c *Config) Validate() error {
	if c.Scan.BatchSize < 1 {
		return fmt.Errorf("scan.batch_size must be at least 1, got %d", c.Scan.BatchSize)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format)
	}
	if c.Release.Manifest == "" {
		return errors.New("release.manifest must not be empty")
	}
	if c.Release.Versions == "" {
		return errors.New("release.versions must not be empty")
	}
	return nil
}

// SetConfigPath overrides where Save writes.
func (c *Config) SetConfigPath(path string) {
	c.path = path
}

// Save writes the configuration back to the path it was loaded from, or to
// FileName in the current directory for a fresh config.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = FileName
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
