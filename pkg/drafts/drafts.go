// Package drafts writes application material with a language model:
// a cover letter and cold email for a posting, and a cleaned-up summary of
// a resume.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/pkg/extractor"
	"github.com/jmylchreest/jobscribe/pkg/llm"
	"github.com/jmylchreest/jobscribe/pkg/schema"
)

var (
	// ErrParse is returned when the model response is not the expected JSON.
	ErrParse = extractor.ErrParse

	// ErrEmptyResume is returned by SummarizeResume for blank input.
	ErrEmptyResume = errors.New("resume text is empty")
)

// DraftRequest describes the posting to write for.
type DraftRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription" validate:"required"`
	CompanyName    string `json:"companyName"`
	JobTitle       string `json:"jobTitle"`
}

// Drafts holds the generated material.
type Drafts struct {
	CoverLetter string `json:"coverLetter" yaml:"coverLetter" description:"A customized cover letter for the job application" validate:"required"`
	ColdEmail   string `json:"coldEmail" yaml:"coldEmail" description:"A concise, high-conversion cold email for the recruiter" validate:"required"`
}

// ResumeSummary is a cleaned resume and a short profile summary.
type ResumeSummary struct {
	CleanedText string `json:"cleanedText" description:"The cleaned and formatted resume text" validate:"required"`
	Summary     string `json:"summary" description:"A concise, professional summary of the candidate's profile" validate:"required"`
}

var (
	draftsSchema  = schema.MustSchema[Drafts](schema.WithName("application_drafts"))
	summarySchema = schema.MustSchema[ResumeSummary](schema.WithName("resume_summary"))
)

// Generator produces drafts and resume summaries.
type Generator struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// New creates a Generator backed by provider.
func New(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:    provider,
		temperature: 0.7,
		maxTokens:   4096,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateDrafts writes a cover letter and a cold email for req.
func (g *Generator) GenerateDrafts(ctx context.Context, req DraftRequest) (Drafts, error) {
	if strings.TrimSpace(req.JobDescription) == "" {
		return Drafts{}, fmt.Errorf("generate drafts: job description is required")
	}

	resume := req.Resume
	if strings.TrimSpace(resume) == "" {
		resume = "The user has not provided a resume. Please generate a cover letter and cold email that is not tailored to a specific resume."
	}

	return complete[Drafts](ctx, g, draftsSchema, "generate drafts",
		draftsSystemPrompt(req),
		"Here is my resume/CV:\n"+resume)
}

// SummarizeResume cleans raw resume text and summarizes the candidate.
func (g *Generator) SummarizeResume(ctx context.Context, text string) (ResumeSummary, error) {
	if strings.TrimSpace(text) == "" {
		return ResumeSummary{}, ErrEmptyResume
	}
	return complete[ResumeSummary](ctx, g, summarySchema, "summarize resume",
		summarySystemPrompt,
		"Raw Resume Text:\n"+text)
}

func complete[T any](ctx context.Context, g *Generator, s schema.Schema, op, system, user string) (T, error) {
	var zero T

	logger.Debug("drafts calling LLM", "op", op, "provider", g.provider.Name(), "model", g.provider.Model())
	resp, err := g.provider.Execute(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		JSONMode:    true,
		JSONSchema:  s.ToJSONSchema(),
		SchemaName:  s.Name,
	})
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	out, err := schema.Decode[T](s, []byte(extractor.StripMarkdownCodeBlock(resp.Content)))
	if err != nil {
		logger.Debug("drafts failed to parse response", "op", op, "error", err)
		return zero, fmt.Errorf("%s: %w: %w", op, ErrParse, err)
	}
	return out, nil
}

func draftsSystemPrompt(req DraftRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an expert career coach. You will generate a cover letter and a cold email based on the user's resume and the job description.\n\n")
	sb.WriteString("You must return the data in a valid JSON object with the following keys: \"coverLetter\", \"coldEmail\".\n\n")
	fmt.Fprintf(&sb, "Company Name: %s\n", req.CompanyName)
	fmt.Fprintf(&sb, "Job Title: %s\n\n", req.JobTitle)
	sb.WriteString("Job Description:\n")
	sb.WriteString(req.JobDescription)
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("1. Cover Letter: Write a professional cover letter tailored to the job description. Highlight how the user's skills and experience align with the job requirements. Use the resume only as needed, if available.\n")
	sb.WriteString("2. Cold Email: Write a concise, high-conversion cold email to the recruiter that highlights the user's key qualifications for the role. Keep it short.\n")
	return sb.String()
}

const summarySystemPrompt = `You are an expert document processor and career coach. Your task is to process raw text extracted from a resume.

1. Clean and format: remove PDF parsing artifacts, extra whitespace and messy formatting. Re-organize it into clean, well-structured text. Use markdown for headings and lists where appropriate.
2. Summarize the profile: write a concise, professional summary of the candidate in 2-3 sentences, covering key skills, years of experience and main qualifications.

Return the result as a JSON object with "cleanedText" and "summary" fields.`
