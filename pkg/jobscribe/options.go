package jobscribe

import (
	"time"

	"github.com/jmylchreest/jobscribe/pkg/cleaner"
	"github.com/jmylchreest/jobscribe/pkg/extractor"
	"github.com/jmylchreest/jobscribe/pkg/fetcher"
	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// Config holds all Scribe configuration. It is fixed for the lifetime of a
// Scribe; nothing in it can be changed per request.
type Config struct {
	// Strategy selects how fields are recovered.
	Strategy extractor.Strategy

	// Primary model settings.
	Provider string
	Model    string
	APIKey   string // falls back to the provider's environment variable
	BaseURL  string

	// Secondary model settings, used by extractor.StrategyModelFallback.
	FallbackProvider string
	FallbackModel    string
	FallbackAPIKey   string
	FallbackBaseURL  string

	// Fetch settings
	UserAgent string
	Timeout   time.Duration

	// Normalization settings
	MaxChars    int
	Readability bool // run readability before the text cleaner

	// Model request settings
	Temperature  float64
	MaxTokens    int
	StrictMode   bool
	ModelTimeout time.Duration

	// Observer is notified of every model call.
	Observer llm.Observer

	// Injected collaborators. When nil, defaults are built from the
	// settings above.
	Fetcher           fetcher.Fetcher
	Cleaner           cleaner.Cleaner // always followed by the text cleaner
	Extractor         extractor.Extractor
	PrimaryProvider   llm.Provider
	SecondaryProvider llm.Provider
}

// DefaultConfig returns sensible defaults: heuristic extraction, with Groq
// as primary and OpenAI as secondary model when a model strategy is chosen.
func DefaultConfig() Config {
	return Config{
		Strategy:         extractor.StrategyHeuristic,
		Provider:         "groq",
		FallbackProvider: "openai",
		UserAgent:        fetcher.DefaultUserAgent,
		Timeout:          fetcher.DefaultTimeout,
		MaxChars:         cleaner.DefaultMaxChars,
		Temperature:      0.1,
		MaxTokens:        2048,
		ModelTimeout:     llm.DefaultTimeout,
	}
}

// Option configures a Scribe.
type Option func(*Config)

// WithStrategy sets the extraction strategy.
func WithStrategy(s extractor.Strategy) Option {
	return func(c *Config) {
		c.Strategy = s
	}
}

// WithProvider sets the primary LLM provider by name.
func WithProvider(provider string) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the primary LLM model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the primary provider's API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets a custom API base URL for the primary provider.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithFallbackProvider sets the secondary LLM provider by name.
func WithFallbackProvider(provider string) Option {
	return func(c *Config) {
		c.FallbackProvider = provider
	}
}

// WithFallbackModel sets the secondary LLM model.
func WithFallbackModel(model string) Option {
	return func(c *Config) {
		c.FallbackModel = model
	}
}

// WithFallbackAPIKey sets the secondary provider's API key.
func WithFallbackAPIKey(key string) Option {
	return func(c *Config) {
		c.FallbackAPIKey = key
	}
}

// WithFallbackBaseURL sets a custom API base URL for the secondary provider.
func WithFallbackBaseURL(url string) Option {
	return func(c *Config) {
		c.FallbackBaseURL = url
	}
}

// WithUserAgent sets the HTTP user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithTimeout sets the fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMaxChars sets the normalized content cap in characters.
func WithMaxChars(n int) Option {
	return func(c *Config) {
		c.MaxChars = n
	}
}

// WithReadability runs readability article extraction before normalization.
func WithReadability(enabled bool) Option {
	return func(c *Config) {
		c.Readability = enabled
	}
}

// WithTemperature sets the LLM temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the maximum output tokens for model calls.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithStrictMode enables strict JSON schema output where supported.
func WithStrictMode(strict bool) Option {
	return func(c *Config) {
		c.StrictMode = strict
	}
}

// WithObserver sets the LLM call observer.
func WithObserver(obs llm.Observer) Option {
	return func(c *Config) {
		c.Observer = obs
	}
}

// WithFetcher injects a custom fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithCleaner injects a cleaner that runs before the text cleaner.
func WithCleaner(cl cleaner.Cleaner) Option {
	return func(c *Config) {
		c.Cleaner = cl
	}
}

// WithExtractor injects a custom extractor, bypassing Strategy.
func WithExtractor(e extractor.Extractor) Option {
	return func(c *Config) {
		c.Extractor = e
	}
}

// WithProviders injects ready-made primary and secondary providers.
// Either may be nil.
func WithProviders(primary, secondary llm.Provider) Option {
	return func(c *Config) {
		c.PrimaryProvider = primary
		c.SecondaryProvider = secondary
	}
}
