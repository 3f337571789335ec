package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// LLMConfig holds configuration for model-backed extraction.
type LLMConfig struct {
	// Temperature for model responses (default: 0.1).
	Temperature float64

	// MaxTokens for model responses (default: 2048).
	MaxTokens int

	// MaxContentSize limits prompt content in characters (default: 20000, 0 = unlimited).
	MaxContentSize int

	// StrictMode enables strict JSON schema validation in the API request.
	// Only honoured by providers that support json_schema response formats.
	StrictMode bool

	// Observer receives a notification after every model call.
	Observer llm.Observer
}

// DefaultLLMConfig returns sensible defaults for job posting extraction.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature:    0.1,
		MaxTokens:      2048,
		MaxContentSize: 20000,
	}
}

// Option configures a model-backed extractor.
type Option func(*LLMConfig)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *LLMConfig) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(c *LLMConfig) { c.MaxTokens = n }
}

// WithMaxContentSize sets the prompt content limit in characters.
func WithMaxContentSize(n int) Option {
	return func(c *LLMConfig) { c.MaxContentSize = n }
}

// WithStrictMode enables strict JSON schema validation.
func WithStrictMode(strict bool) Option {
	return func(c *LLMConfig) { c.StrictMode = strict }
}

// WithObserver sets the observer notified of every model call.
func WithObserver(obs llm.Observer) Option {
	return func(c *LLMConfig) { c.Observer = obs }
}

// SystemPrompt instructs the model to act as a job posting extractor.
const SystemPrompt = `You are an expert web scraper and data extractor. You are given the text of a job posting page.

Identify the main job posting. Ignore headers, footers, navigation bars, cookie notices, advertisements and other unrelated content.

Respond with ONLY a valid JSON object. No explanations, no markdown.

Rules:
1. Use exactly the keys jobTitle, companyName and jobDescription.
2. Every value is a string. If a value cannot be found, use an empty string.
3. jobDescription holds the core description: responsibilities, qualifications and other relevant details.`

// BuildPrompt creates the extraction prompt from page content.
func BuildPrompt(content string, maxContentSize int) string {
	var prompt strings.Builder

	prompt.WriteString("Extract the job posting from the following page content.\n\n")
	prompt.WriteString(PostingSchema.ToPromptDescription())

	prompt.WriteString("\n## Page Content\n")
	prompt.WriteString("```\n")
	prompt.WriteString(TruncateContent(content, maxContentSize))
	prompt.WriteString("\n```\n")

	return prompt.String()
}

// TruncateContent limits content to maxLen characters.
// maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	return string([]rune(content)[:maxLen]) + "\n\n[Content truncated due to length...]"
}

// StripMarkdownCodeBlock removes markdown code block wrappers from JSON responses.
// Some models wrap their JSON output in ```json ... ``` blocks.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// truncateForError limits a response for inclusion in error messages.
func truncateForError(s string) string {
	const maxLen = 200
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
