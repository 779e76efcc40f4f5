package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/syntrixbase/searchnav/internal/navigator"
	"github.com/syntrixbase/searchnav/internal/page"
)

// NavigatorConfig tunes the in-page search navigation.
type NavigatorConfig struct {
	Selectors    page.Selectors `yaml:"selectors"`
	FetchTimeout time.Duration  `yaml:"fetch_timeout"`
	MaxBodyBytes int64          `yaml:"max_body_bytes"`
	// ErrorMessage is the markup shown in place of results when a refresh
	// fails.
	ErrorMessage string        `yaml:"error_message"`
	Debounce     time.Duration `yaml:"debounce"`
}

// DefaultNavigatorConfig returns defaults matching the search server's markup.
func DefaultNavigatorConfig() NavigatorConfig {
	return NavigatorConfig{
		Selectors:    page.DefaultSelectors(),
		FetchTimeout: 15 * time.Second,
		MaxBodyBytes: 10 << 20,
		ErrorMessage: navigator.DefaultErrorMessage,
		Debounce:     500 * time.Millisecond,
	}
}

// ApplyDefaults fills zero values.
func (c *NavigatorConfig) ApplyDefaults() {
	d := DefaultNavigatorConfig()
	c.Selectors.ApplyDefaults()
	if c.FetchTimeout == 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if strings.TrimSpace(c.ErrorMessage) == "" {
		c.ErrorMessage = d.ErrorMessage
	}
	if c.Debounce == 0 {
		c.Debounce = d.Debounce
	}
}

// ApplyEnvOverrides reads SEARCHNAV_FETCH_TIMEOUT. Unparseable values are
// left for Validate to report.
func (c *NavigatorConfig) ApplyEnvOverrides() {
	if v := os.Getenv("SEARCHNAV_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			c.FetchTimeout = -1
			return
		}
		c.FetchTimeout = d
	}
}

// ResolvePaths is a no-op; the navigator has no paths.
func (c *NavigatorConfig) ResolvePaths(string) {}

// Validate checks selectors and limits.
func (c *NavigatorConfig) Validate() error {
	if c.FetchTimeout < 0 {
		return fmt.Errorf("navigator.fetch_timeout must be a positive duration")
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("navigator.max_body_bytes must be >= 0")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("navigator.debounce must be >= 0")
	}
	if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("navigator.selectors: %w", err)
	}
	return nil
}
