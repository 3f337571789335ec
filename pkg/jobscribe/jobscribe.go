// Package jobscribe provides the public API for extracting job postings:
// fetch a page, normalize it to plain text and recover the job title,
// company name and job description.
package jobscribe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/pkg/cleaner"
	"github.com/jmylchreest/jobscribe/pkg/extractor"
	"github.com/jmylchreest/jobscribe/pkg/fetcher"
	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// Errors returned by Scribe. Use errors.Is to check for them.
var (
	// ErrInvalidURL is returned before any network call when the job URL
	// is not an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid job URL")

	// ErrFetchFailed never reaches ExtractJobDescription callers: fetch
	// failures degrade to an empty Result. Outcome.FetchErr matches it.
	ErrFetchFailed = fetcher.ErrFetchFailed

	// ErrParse is returned when model output is not valid posting JSON.
	ErrParse = extractor.ErrParse

	// ErrQuota is returned when the model is rate limited and no fallback
	// recovered.
	ErrQuota = extractor.ErrQuota
)

// Version returns the module version of the jobscribe library.
// Returns "(devel)" when built from source without version info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Request identifies the posting to extract.
type Request struct {
	JobURL string `json:"jobUrl"`
}

// Result is the extracted posting. Fields that could not be recovered are
// empty strings.
type Result = extractor.Posting

// Outcome is a Result with metadata about how it was produced.
type Outcome struct {
	URL    string
	Result Result

	// FetchErr is set when the page could not be fetched. Result is then
	// empty and no extraction was attempted.
	FetchErr   error
	StatusCode int

	Extractor  string // extractor that produced the result
	Model      string
	FellBack   bool
	TokenUsage TokenUsage

	ContentSize     int // normalized content length in characters
	FetchedAt       time.Time
	FetchDuration   time.Duration
	ExtractDuration time.Duration

	// Error is set by ExtractMany when extraction failed.
	Error error
}

// TokenUsage tracks LLM token consumption.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Scribe runs the extraction pipeline. It holds only configuration and
// stateless collaborators and is safe for concurrent use.
type Scribe struct {
	fetcher   fetcher.Fetcher
	cleaner   cleaner.Cleaner
	extractor extractor.Extractor
	config    Config
}

// New creates a new Scribe.
func New(opts ...Option) (*Scribe, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Use injected fetcher or create a default static one
	f := cfg.Fetcher
	if f == nil {
		f = fetcher.NewStatic(fetcher.StaticConfig{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		})
	}

	// The text cleaner always runs last so output is tag-free and capped
	var pre []cleaner.Cleaner
	if cfg.Readability {
		pre = append(pre, cleaner.NewReadability(&cleaner.ReadabilityConfig{Output: cleaner.OutputHTML}))
	}
	if cfg.Cleaner != nil {
		pre = append(pre, cfg.Cleaner)
	}
	var cl cleaner.Cleaner = cleaner.Default(cfg.MaxChars)
	if len(pre) > 0 {
		cl = cleaner.NewChain(append(pre, cl)...)
	}

	ext := cfg.Extractor
	if ext == nil {
		var err error
		if ext, err = buildExtractor(cfg); err != nil {
			return nil, fmt.Errorf("failed to create extractor: %w", err)
		}
	}

	logger.Debug("scribe ready",
		"strategy", cfg.Strategy,
		"fetcher", f.Type(),
		"cleaner", cl.Name(),
		"extractor", ext.Name())

	return &Scribe{
		fetcher:   f,
		cleaner:   cl,
		extractor: ext,
		config:    cfg,
	}, nil
}

func buildExtractor(cfg Config) (extractor.Extractor, error) {
	strategy, err := extractor.ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	ecfg := extractor.Config{
		Strategy: strategy,
		Options: []extractor.Option{
			extractor.WithTemperature(cfg.Temperature),
			extractor.WithMaxTokens(cfg.MaxTokens),
			extractor.WithMaxContentSize(cfg.MaxChars),
			extractor.WithStrictMode(cfg.StrictMode),
			extractor.WithObserver(cfg.Observer),
		},
	}
	if strategy == extractor.StrategyHeuristic {
		return extractor.New(ecfg)
	}

	ecfg.Primary = cfg.PrimaryProvider
	if ecfg.Primary == nil {
		if ecfg.Primary, err = newProvider(cfg.Provider, cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.ModelTimeout); err != nil {
			return nil, err
		}
	}
	if strategy == extractor.StrategyModelFallback {
		ecfg.Secondary = cfg.SecondaryProvider
		if ecfg.Secondary == nil {
			if ecfg.Secondary, err = newProvider(cfg.FallbackProvider, cfg.FallbackModel, cfg.FallbackAPIKey, cfg.FallbackBaseURL, cfg.ModelTimeout); err != nil {
				return nil, fmt.Errorf("fallback: %w", err)
			}
		}
	}
	return extractor.New(ecfg)
}

// newProvider builds a registered provider. An empty key is read from the
// provider's environment variable.
func newProvider(name, model, apiKey, baseURL string, timeout time.Duration) (llm.Provider, error) {
	if apiKey == "" {
		if env := llm.EnvKey(name); env != "" {
			apiKey = os.Getenv(env)
		}
	}
	return llm.NewProvider(name, llm.ProviderConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
		Timeout: timeout,
	})
}

// ExtractJobDescription fetches the posting at req.JobURL and recovers its
// fields. A page that cannot be fetched yields an empty Result and a nil
// error.
func (s *Scribe) ExtractJobDescription(ctx context.Context, req Request) (Result, error) {
	out, err := s.Extract(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return out.Result, nil
}

// Extract is ExtractJobDescription with metadata.
func (s *Scribe) Extract(ctx context.Context, req Request) (*Outcome, error) {
	if err := ValidateURL(req.JobURL); err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	content, err := s.fetcher.Fetch(ctx, req.JobURL, fetcher.Options{
		UserAgent: s.config.UserAgent,
		Timeout:   s.config.Timeout,
	})
	out := &Outcome{
		URL:           req.JobURL,
		StatusCode:    content.StatusCode,
		FetchedAt:     content.FetchedAt,
		FetchDuration: time.Since(fetchStart),
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.WarnContext(ctx, "fetch failed, returning empty result",
			"url", req.JobURL,
			"status", content.StatusCode,
			"error", err)
		out.FetchErr = err
		return out, nil
	}

	cleaned, err := s.cleaner.Clean(content.HTML)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", req.JobURL, err)
	}
	out.ContentSize = len([]rune(cleaned))
	logger.Debug("content cleaned",
		"cleaner", s.cleaner.Name(),
		"input_size", len(content.HTML),
		"output_size", out.ContentSize)

	result, err := s.extractor.Extract(ctx, extractor.Page{
		URL:     req.JobURL,
		HTML:    content.HTML,
		Content: cleaned,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	out.Result = result.Posting
	out.Extractor = result.Provider
	out.Model = result.Model
	out.FellBack = result.FellBack
	out.TokenUsage = TokenUsage{
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
	}
	out.ExtractDuration = result.Duration
	return out, nil
}

// ExtractMany extracts postings from multiple URLs concurrently.
func (s *Scribe) ExtractMany(ctx context.Context, urls []string, concurrency int) <-chan *Outcome {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(chan *Outcome, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := s.Extract(ctx, Request{JobURL: u})
			if err != nil {
				results <- &Outcome{URL: u, Error: err}
				return
			}
			results <- out
		}(u)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	return nil
}

// Close releases all resources.
func (s *Scribe) Close() error {
	if s.fetcher != nil {
		return s.fetcher.Close()
	}
	return nil
}

// Strategy returns the configured extractor name.
func (s *Scribe) Strategy() string {
	return s.extractor.Name()
}
