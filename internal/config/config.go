// Package config loads searchnav configuration from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/syntrixbase/searchnav/internal/searchserver"
	"github.com/syntrixbase/searchnav/internal/server"
)

// Config holds the application configuration.
type Config struct {
	Navigator NavigatorConfig     `yaml:"navigator"`
	Server    server.Config       `yaml:"server"`
	Search    searchserver.Config `yaml:"search"`
	Logging   LoggingConfig       `yaml:"logging"`
}

// ServiceConfig is the lifecycle every config section goes through after the
// files are read.
type ServiceConfig interface {
	ApplyDefaults()
	ApplyEnvOverrides()
	// ResolvePaths makes relative paths relative to configDir.
	ResolvePaths(configDir string)
	Validate() error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Navigator: DefaultNavigatorConfig(),
		Server:    server.DefaultConfig(),
		Search:    searchserver.DefaultConfig(),
		Logging:   DefaultLoggingConfig(),
	}
}

// Load reads configuration from dir.
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults ->
// ApplyEnvOverrides -> ResolvePaths -> Validate. Missing files are skipped.
func Load(dir string) (*Config, error) {
	cfg := Default()

	for _, name := range []string{"config.yml", "config.local.yml"} {
		if err := loadFile(filepath.Join(dir, name), cfg); err != nil {
			return nil, err
		}
	}

	if err := Apply(dir, &cfg.Navigator, &cfg.Server, &cfg.Search, &cfg.Logging); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// Apply runs the lifecycle over each section, stopping at the first invalid
// one.
func Apply(configDir string, sections ...ServiceConfig) error {
	for _, s := range sections {
		s.ApplyDefaults()
		s.ApplyEnvOverrides()
		s.ResolvePaths(configDir)
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML in %q: %w", path, err)
	}
	return nil
}
