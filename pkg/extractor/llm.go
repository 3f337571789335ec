package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/pkg/llm"
	"github.com/jmylchreest/jobscribe/pkg/schema"
)

// LLMExtractor delegates field recovery to a language model. It makes a
// single attempt per page; parse failures are not retried.
type LLMExtractor struct {
	provider llm.Provider
	config   LLMConfig
}

// NewLLM creates a model-backed extractor.
func NewLLM(provider llm.Provider, opts ...Option) *LLMExtractor {
	config := DefaultLLMConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if provider != nil {
		provider = llm.Observe(provider, config.Observer)
	}
	return &LLMExtractor{
		provider: provider,
		config:   config,
	}
}

// Extract asks the model for the posting fields and decodes its answer.
func (e *LLMExtractor) Extract(ctx context.Context, page Page) (*Result, error) {
	if e.provider == nil {
		return nil, ErrNoExtractorAvailable
	}

	start := time.Now()
	prompt := BuildPrompt(page.Content, e.config.MaxContentSize)
	logger.Debug("extractor calling LLM",
		"provider", e.provider.Name(),
		"model", e.provider.Model(),
		"url", page.URL,
		"prompt_size", len(prompt),
		"max_tokens", e.config.MaxTokens,
		"temperature", e.config.Temperature)

	resp, err := e.provider.Execute(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
		JSONMode:    true,
		JSONSchema:  PostingSchema.ToJSONSchema(),
		SchemaName:  PostingSchema.Name,
		StrictMode:  e.config.StrictMode,
	})
	if err != nil {
		logger.Debug("extractor LLM completion failed", "provider", e.provider.Name(), "error", err)
		if llm.IsRateLimited(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrQuota, e.Name(), err)
		}
		return nil, fmt.Errorf("%s: LLM completion failed: %w", e.Name(), err)
	}

	logger.Debug("extractor LLM response received",
		"response_size", len(resp.Content),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"finish_reason", resp.FinishReason)

	posting, err := schema.Decode[Posting](PostingSchema, []byte(StripMarkdownCodeBlock(resp.Content)))
	if err != nil {
		logger.Debug("extractor failed to parse response", "error", err)
		return nil, fmt.Errorf("%w: %s: %w (response: %s)", ErrParse, e.Name(), err, truncateForError(resp.Content))
	}

	return &Result{
		Posting: posting,
		Raw:     resp.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		Model:    resp.Model,
		Provider: e.Name(),
		Duration: time.Since(start),
	}, nil
}

// Name returns the underlying provider name.
func (e *LLMExtractor) Name() string {
	if e.provider == nil {
		return "llm"
	}
	return e.provider.Name()
}

// Available returns true when a provider is configured.
func (e *LLMExtractor) Available() bool {
	return e.provider != nil
}
