// Package llm provides a unified interface over the chat model providers
// jobscribe can call.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a completion request to the LLM.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64

	// JSONMode asks the provider to return a single JSON object.
	JSONMode bool
	// JSONSchema, when set, constrains the object further on providers with
	// structured output support. It implies JSONMode.
	JSONSchema map[string]any
	SchemaName string
	StrictMode bool
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of an LLM execution.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // Actual model used, as reported by the provider
	Duration     time.Duration
}

// Provider is the core interface that all LLM backends must implement.
type Provider interface {
	// Execute sends a completion request and returns the response.
	// Failures reported by the remote API are returned as *StatusError.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "groq", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For custom or OpenAI-compatible endpoints
	Model   string
	// MaxRetries is handed to the provider SDK. The extraction pipeline
	// keeps it at zero; a rate limit is handled by the fallback model.
	MaxRetries int
	Timeout    time.Duration
}

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 120 * time.Second

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 0,
		Timeout:    DefaultTimeout,
	}
}

func (c ProviderConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

const defaultMaxTokens = 4096

func maxTokens(req Request) int {
	if req.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return req.MaxTokens
}
