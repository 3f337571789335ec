// Package extractor recovers job title, company name and job description
// from a fetched job posting.
package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/jobscribe/pkg/schema"
)

// Extractor recovers posting fields from a page.
type Extractor interface {
	// Extract recovers the posting fields. Fields that cannot be recovered
	// are empty strings; that is not an error.
	Extract(ctx context.Context, page Page) (*Result, error)

	// Name returns the extractor identifier.
	Name() string

	// Available returns true if the extractor is properly configured
	// (e.g., has a provider with credentials).
	Available() bool
}

// Page is the input to an extractor.
type Page struct {
	URL     string
	HTML    string // raw markup as fetched
	Content string // normalized plain text
}

// Posting holds the three recovered fields.
type Posting struct {
	JobTitle       string `json:"jobTitle" description:"The job title, or an empty string if it cannot be determined"`
	CompanyName    string `json:"companyName" description:"The hiring company's name, or an empty string if it cannot be determined"`
	JobDescription string `json:"jobDescription" description:"The core job description: responsibilities, qualifications and other relevant details. Empty string if none is present"`
}

// PostingSchema is the JSON shape models must return.
var PostingSchema = schema.MustSchema[Posting](
	schema.WithName("job_posting"),
	schema.WithDescription("A single job posting."),
)

// Result holds the extraction output.
type Result struct {
	Posting

	// Raw is the raw model response; empty for the heuristic extractor.
	Raw string

	// Usage tracks token consumption for model-backed extractors.
	Usage Usage

	// Model is the model that produced the result, as reported by the provider.
	Model string

	// Provider is the extractor that produced the result.
	Provider string

	// FellBack is true when the secondary extractor of a fallback pair
	// produced the result.
	FellBack bool

	Duration time.Duration
}

// Usage tracks token consumption for LLM-based extractors.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

var (
	// ErrParse marks model output that is not JSON or does not match
	// PostingSchema. It is never accompanied by a partial result.
	ErrParse = errors.New("model response could not be parsed")

	// ErrQuota marks a provider rate limit that was not recovered.
	ErrQuota = errors.New("model quota exhausted")

	// ErrNoExtractorAvailable is returned when no configured extractor can run.
	ErrNoExtractorAvailable = errors.New("no extractor available")
)
