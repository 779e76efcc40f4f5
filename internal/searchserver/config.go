package searchserver

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config configures the demo search backend.
type Config struct {
	// CataloguePath points at a YAML catalogue. Empty uses the built-in
	// sample.
	CataloguePath string `yaml:"catalogue"`
	// AssetsDir, when set, is served under /assets/ and the page loads the
	// wasm navigator from it.
	AssetsDir   string `yaml:"assets_dir"`
	Title       string `yaml:"title"`
	DefaultSize int    `yaml:"default_size"`
	MaxSize     int    `yaml:"max_size"`
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		Title:       "Search",
		DefaultSize: 10,
		MaxSize:     50,
	}
}

func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.DefaultSize == 0 {
		c.DefaultSize = d.DefaultSize
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
}

// ApplyEnvOverrides reads SEARCHNAV_CATALOGUE and SEARCHNAV_ASSETS_DIR.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SEARCHNAV_CATALOGUE"); v != "" {
		c.CataloguePath = v
	}
	if v := os.Getenv("SEARCHNAV_ASSETS_DIR"); v != "" {
		c.AssetsDir = v
	}
}

// ResolvePaths makes relative paths relative to configDir.
func (c *Config) ResolvePaths(configDir string) {
	for _, p := range []*string{&c.CataloguePath, &c.AssetsDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

func (c *Config) Validate() error {
	if c.DefaultSize < 1 {
		return fmt.Errorf("search.default_size must be positive")
	}
	if c.MaxSize < c.DefaultSize {
		return fmt.Errorf("search.max_size (%d) must be >= default_size (%d)", c.MaxSize, c.DefaultSize)
	}
	return nil
}
