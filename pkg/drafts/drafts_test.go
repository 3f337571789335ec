package drafts

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jmylchreest/jobscribe/pkg/llm"
)

type stubProvider struct {
	content string
	err     error
	reqs    []llm.Request
}

func (s *stubProvider) Execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.content, Model: "stub-model"}, nil
}
func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func TestGenerateDrafts(t *testing.T) {
	p := &stubProvider{content: `{"coverLetter":"Dear Acme,","coldEmail":"Hi there"}`}
	g := New(p)

	got, err := g.GenerateDrafts(context.Background(), DraftRequest{
		Resume:         "Go developer, 5 years",
		JobDescription: "Build scalable systems.",
		CompanyName:    "Acme",
		JobTitle:       "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("GenerateDrafts() error = %v", err)
	}
	if got.CoverLetter != "Dear Acme," || got.ColdEmail != "Hi there" {
		t.Errorf("Drafts = %+v", got)
	}

	req := p.reqs[0]
	if !req.JSONMode || req.SchemaName != "application_drafts" {
		t.Errorf("request should enforce JSON output: %+v", req)
	}
	system := req.Messages[0].Content
	for _, want := range []string{"Company Name: Acme", "Job Title: Backend Engineer", "Build scalable systems.", `"coverLetter"`} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.Contains(req.Messages[1].Content, "Go developer, 5 years") {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
}

func TestGenerateDrafts_NoResume(t *testing.T) {
	p := &stubProvider{content: "```json\n{\"coverLetter\":\"a\",\"coldEmail\":\"b\"}\n```"}
	if _, err := New(p).GenerateDrafts(context.Background(), DraftRequest{JobDescription: "x"}); err != nil {
		t.Fatalf("GenerateDrafts() error = %v", err)
	}
	if !strings.Contains(p.reqs[0].Messages[1].Content, "has not provided a resume") {
		t.Errorf("user message = %q", p.reqs[0].Messages[1].Content)
	}
}

func TestGenerateDrafts_Errors(t *testing.T) {
	tests := []struct {
		name      string
		provider  *stubProvider
		req       DraftRequest
		wantParse bool
		wantRate  bool
	}{
		{"no description", &stubProvider{}, DraftRequest{}, false, false},
		{"not json", &stubProvider{content: "Here is your letter"}, DraftRequest{JobDescription: "x"}, true, false},
		{"missing key", &stubProvider{content: `{"coverLetter":"a"}`}, DraftRequest{JobDescription: "x"}, true, false},
		{"empty value", &stubProvider{content: `{"coverLetter":"","coldEmail":"b"}`}, DraftRequest{JobDescription: "x"}, true, false},
		{"rate limited", &stubProvider{err: &llm.StatusError{Provider: "stub", StatusCode: http.StatusTooManyRequests}}, DraftRequest{JobDescription: "x"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.provider).GenerateDrafts(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrParse) != tt.wantParse {
				t.Errorf("errors.Is(ErrParse) = %v, want %v (%v)", !tt.wantParse, tt.wantParse, err)
			}
			if llm.IsRateLimited(err) != tt.wantRate {
				t.Errorf("IsRateLimited = %v, want %v (%v)", !tt.wantRate, tt.wantRate, err)
			}
		})
	}
}

func TestSummarizeResume(t *testing.T) {
	p := &stubProvider{content: `{"cleanedText":"# Jane Doe\n- Go","summary":"Seasoned engineer."}`}
	got, err := New(p, WithTemperature(0.2), WithMaxTokens(1000)).SummarizeResume(context.Background(), "Jane  Doe\f Go")
	if err != nil {
		t.Fatalf("SummarizeResume() error = %v", err)
	}
	if got.Summary != "Seasoned engineer." || !strings.HasPrefix(got.CleanedText, "# Jane Doe") {
		t.Errorf("ResumeSummary = %+v", got)
	}
	req := p.reqs[0]
	if req.Temperature != 0.2 || req.MaxTokens != 1000 {
		t.Errorf("Temperature/MaxTokens = %v/%d", req.Temperature, req.MaxTokens)
	}
	if !strings.Contains(req.Messages[1].Content, "Jane  Doe") {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
}

func TestSummarizeResume_Errors(t *testing.T) {
	p := &stubProvider{}
	if _, err := New(p).SummarizeResume(context.Background(), "  \n"); !errors.Is(err, ErrEmptyResume) {
		t.Errorf("error = %v, want ErrEmptyResume", err)
	}
	if len(p.reqs) != 0 {
		t.Error("empty resume should not reach the model")
	}

	p.content = `{"summary":"x"}`
	if _, err := New(p).SummarizeResume(context.Background(), "resume"); !errors.Is(err, ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
}
