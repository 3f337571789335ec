// Package fetcher provides the CLI's headless-browser fetcher for job boards
// that render postings with JavaScript.
package fetcher

import (
	"time"

	"github.com/jmylchreest/jobscribe/pkg/fetcher"
)

// Config holds configuration for the dynamic fetcher.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	Stealth    bool   // patch the common headless fingerprints
	ChromePath string // empty searches the usual install locations
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: fetcher.DefaultUserAgent,
		Timeout:   fetcher.DefaultTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.ChromePath == "" {
		c.ChromePath = FindChromePath()
	}
	return c
}
