package extractor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// scenarioHTML is a minimal posting: a title heading and one section.
const scenarioHTML = `<html><head><title>Jobs</title></head><body><h1>Backend Engineer</h1><h2>About the job</h2><p>Build scalable systems.</p></body></html>`

const scenarioContent = "Backend Engineer\n\nAbout the job\n\nBuild scalable systems."

// stubProvider replays canned responses and records requests.
type stubProvider struct {
	name string
	resp *llm.Response
	err  error

	mu    sync.Mutex
	calls int
	reqs  []llm.Request
}

func (s *stubProvider) Execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubProvider) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubProvider) Model() string { return "stub-model" }

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func jsonResponse(content string) *llm.Response {
	return &llm.Response{
		Content: content,
		Model:   "stub-model-001",
		Usage:   llm.Usage{InputTokens: 100, OutputTokens: 20},
	}
}

func rateLimited(provider string) error {
	return &llm.StatusError{Provider: provider, StatusCode: http.StatusTooManyRequests, Err: errors.New("rate limit reached")}
}

const validJSON = `{"jobTitle":"Backend Engineer","companyName":"Acme","jobDescription":"Build scalable systems."}`

// --- Heuristic ---

func TestHeuristic_Scenario(t *testing.T) {
	res, err := NewHeuristic().Extract(context.Background(), Page{
		URL:     "https://jobs.example.com/1",
		HTML:    scenarioHTML,
		Content: scenarioContent,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := Posting{JobTitle: "Backend Engineer", CompanyName: "", JobDescription: "Build scalable systems."}
	if res.Posting != want {
		t.Errorf("Posting = %+v, want %+v", res.Posting, want)
	}
	if res.Provider != "heuristic" {
		t.Errorf("Provider = %q", res.Provider)
	}
}

func TestHeuristic_Fields(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want Posting
	}{
		{
			name: "labels without markup",
			page: Page{Content: "Job Title: Data Analyst\nCompany: Initech\n\nJob Description\n\nCrunch numbers."},
			want: Posting{JobTitle: "Data Analyst", CompanyName: "Initech", JobDescription: "Crunch numbers."},
		},
		{
			name: "h1 wins over label",
			page: Page{
				HTML:    "<body><h1>  Staff\n  Engineer </h1></body>",
				Content: "Job title: Something Else",
			},
			want: Posting{JobTitle: "Staff Engineer", JobDescription: "Job title: Something Else"},
		},
		{
			name: "first h1 only",
			page: Page{HTML: "<h1>First</h1><h1>Second</h1>", Content: "First\n\nSecond"},
			want: Posting{JobTitle: "First", JobDescription: "First\n\nSecond"},
		},
		{
			name: "empty h1 falls back to label",
			page: Page{HTML: "<h1> </h1>", Content: "job title:Platform Engineer"},
			want: Posting{JobTitle: "Platform Engineer", JobDescription: "job title:Platform Engineer"},
		},
		{
			name: "company after at",
			page: Page{Content: "Senior SRE at Acme Corp.\nWe run things."},
			want: Posting{CompanyName: "Acme Corp", JobDescription: "Senior SRE at Acme Corp.\nWe run things."},
		},
		{
			name: "company label wins over at",
			page: Page{Content: "Work at Globex\nCompany: Initech"},
			want: Posting{CompanyName: "Initech", JobDescription: "Work at Globex\nCompany: Initech"},
		},
		{
			name: "lowercase after at is not a company",
			page: Page{Content: "Join us at our office"},
			want: Posting{JobDescription: "Join us at our office"},
		},
		{
			name: "anchor is case-insensitive",
			page: Page{Content: "JOB DESCRIPTION\n\nWrite Go.\n\nBenefits"},
			want: Posting{JobDescription: "Write Go."},
		},
		{
			name: "anchor without following block falls through",
			page: Page{Content: "Intro\n\nResponsibilities\n\nShip code.\n\nAbout the job"},
			want: Posting{JobDescription: "Ship code."},
		},
		{
			name: "about the job takes priority",
			page: Page{Content: "Responsibilities\n\nLead.\n\nAbout the job\n\nWe build."},
			want: Posting{JobDescription: "We build."},
		},
		{
			name: "no anchor returns whole content",
			page: Page{Content: "Just some text\n\nand more"},
			want: Posting{JobDescription: "Just some text\n\nand more"},
		},
		{
			name: "empty page",
			page: Page{},
			want: Posting{},
		},
		{
			name: "text that grows when lowercased before anchor",
			page: Page{Content: strings.Repeat("Ⱥ", 30) + "\nAbout the job"},
			want: Posting{JobDescription: strings.Repeat("Ⱥ", 30) + "\nAbout the job"},
		},
		{
			name: "text that shrinks when lowercased before anchor",
			page: Page{Content: strings.Repeat("İ", 5) + "\nAbout the job\n\nBuild scalable systems."},
			want: Posting{JobDescription: "Build scalable systems."},
		},
		{
			name: "multibyte before and after anchor",
			page: Page{Content: "Über uns\n\njob description\n\nEntwicklung für Café-Kunden 日本.\n\nMehr"},
			want: Posting{JobDescription: "Entwicklung für Café-Kunden 日本."},
		},
		{
			name: "anchor at end of multibyte content",
			page: Page{Content: "ÄÖÜ résumé ǅ\nRESPONSIBILITIES"},
			want: Posting{JobDescription: "ÄÖÜ résumé ǅ\nRESPONSIBILITIES"},
		},
	}

	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Extract(context.Background(), tt.page)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if res.Posting != tt.want {
				t.Errorf("Posting = %+v, want %+v", res.Posting, tt.want)
			}
		})
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic()
	page := Page{HTML: scenarioHTML, Content: scenarioContent}
	first, _ := h.Extract(context.Background(), page)
	for i := 0; i < 5; i++ {
		again, _ := h.Extract(context.Background(), page)
		if again.Posting != first.Posting {
			t.Fatalf("run %d = %+v, want %+v", i, again.Posting, first.Posting)
		}
	}
	if !h.Available() || h.Name() != "heuristic" {
		t.Error("heuristic should always be available")
	}
}

// --- Model ---

func TestLLMExtractor_Success(t *testing.T) {
	p := &stubProvider{resp: jsonResponse(validJSON)}
	e := NewLLM(p)

	res, err := e.Extract(context.Background(), Page{Content: scenarioContent})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := Posting{JobTitle: "Backend Engineer", CompanyName: "Acme", JobDescription: "Build scalable systems."}
	if res.Posting != want {
		t.Errorf("Posting = %+v, want %+v", res.Posting, want)
	}
	if res.Raw != validJSON || res.Model != "stub-model-001" || res.Provider != "stub" {
		t.Errorf("Result = %+v", res)
	}
	if res.Usage.InputTokens != 100 || res.Usage.OutputTokens != 20 {
		t.Errorf("Usage = %+v", res.Usage)
	}
	if res.FellBack {
		t.Error("FellBack should be false for a single extractor")
	}

	if len(p.reqs) != 1 {
		t.Fatalf("provider saw %d requests, want 1", len(p.reqs))
	}
	req := p.reqs[0]
	if !req.JSONMode || req.JSONSchema == nil || req.SchemaName != "job_posting" {
		t.Errorf("request should enforce JSON output: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != llm.RoleSystem || req.Messages[0].Content != SystemPrompt {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, scenarioContent) {
		t.Error("user prompt should include the page content")
	}
	if req.Temperature != 0.1 || req.MaxTokens != 2048 {
		t.Errorf("Temperature/MaxTokens = %v/%d", req.Temperature, req.MaxTokens)
	}
}

func TestLLMExtractor_FencedResponse(t *testing.T) {
	p := &stubProvider{resp: jsonResponse("```json\n" + validJSON + "\n```")}
	res, err := NewLLM(p).Extract(context.Background(), Page{Content: "x"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.JobTitle != "Backend Engineer" {
		t.Errorf("JobTitle = %q", res.JobTitle)
	}
}

func TestLLMExtractor_EmptyFieldsAreValid(t *testing.T) {
	p := &stubProvider{resp: jsonResponse(`{"jobTitle":"","companyName":"","jobDescription":"","salary":"n/a"}`)}
	res, err := NewLLM(p).Extract(context.Background(), Page{Content: "x"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Posting != (Posting{}) {
		t.Errorf("Posting = %+v, want empty", res.Posting)
	}
}

func TestLLMExtractor_ParseFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "Sorry, I can't help with that."},
		{"array", `["Backend Engineer"]`},
		{"missing key", `{"jobTitle":"Backend Engineer","companyName":"Acme"}`},
		{"null value", `{"jobTitle":null,"companyName":"Acme","jobDescription":"x"}`},
		{"wrong type", `{"jobTitle":42,"companyName":"Acme","jobDescription":"x"}`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{resp: jsonResponse(tt.content)}
			res, err := NewLLM(p).Extract(context.Background(), Page{Content: "x"})
			if !errors.Is(err, ErrParse) {
				t.Fatalf("error = %v, want ErrParse", err)
			}
			if res != nil {
				t.Errorf("result = %+v, want nil on parse failure", res)
			}
			if p.callCount() != 1 {
				t.Errorf("provider called %d times, want 1", p.callCount())
			}
		})
	}
}

func TestLLMExtractor_RateLimit(t *testing.T) {
	p := &stubProvider{err: rateLimited("stub")}
	res, err := NewLLM(p).Extract(context.Background(), Page{Content: "x"})
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if !errors.Is(err, ErrQuota) || !llm.IsRateLimited(err) {
		t.Errorf("error = %v, want ErrQuota wrapping the rate limit", err)
	}
}

func TestLLMExtractor_OtherProviderError(t *testing.T) {
	p := &stubProvider{err: &llm.StatusError{Provider: "stub", StatusCode: 500, Err: errors.New("boom")}}
	_, err := NewLLM(p).Extract(context.Background(), Page{Content: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrQuota) || errors.Is(err, ErrParse) {
		t.Errorf("error = %v, should be neither quota nor parse", err)
	}
}

func TestLLMExtractor_Options(t *testing.T) {
	var observed int
	obs := llm.ObserverFunc(func(ctx context.Context, e llm.CallEvent) { observed++ })

	p := &stubProvider{resp: jsonResponse(validJSON)}
	e := NewLLM(p,
		WithTemperature(0.5),
		WithMaxTokens(512),
		WithStrictMode(true),
		WithMaxContentSize(3),
		WithObserver(obs),
	)
	if _, err := e.Extract(context.Background(), Page{Content: "abcdef"}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	req := p.reqs[0]
	if req.Temperature != 0.5 || req.MaxTokens != 512 || !req.StrictMode {
		t.Errorf("request = %+v", req)
	}
	if strings.Contains(req.Messages[1].Content, "abcdef") || !strings.Contains(req.Messages[1].Content, "abc") {
		t.Error("content should be truncated to 3 characters")
	}
	if observed != 1 {
		t.Errorf("observer saw %d calls, want 1", observed)
	}
}

func TestLLMExtractor_NoProvider(t *testing.T) {
	e := NewLLM(nil)
	if e.Available() {
		t.Error("extractor without provider should not be available")
	}
	if _, err := e.Extract(context.Background(), Page{}); !errors.Is(err, ErrNoExtractorAvailable) {
		t.Errorf("error = %v, want ErrNoExtractorAvailable", err)
	}
}

// --- Fallback ---

func TestFallback_RateLimitUsesSecondaryOnce(t *testing.T) {
	primary := &stubProvider{name: "groq", err: rateLimited("groq")}
	secondary := &stubProvider{name: "openai", resp: jsonResponse(validJSON)}

	f := NewFallback(NewLLM(primary), NewLLM(secondary))
	res, err := f.Extract(context.Background(), Page{Content: scenarioContent})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.JobTitle != "Backend Engineer" || res.Provider != "openai" || !res.FellBack {
		t.Errorf("Result = %+v", res)
	}
	if primary.callCount() != 1 || secondary.callCount() != 1 {
		t.Errorf("calls = primary %d, secondary %d; want 1 and 1", primary.callCount(), secondary.callCount())
	}
}

func TestFallback_NonRateLimitErrorsPropagate(t *testing.T) {
	tests := []struct {
		name    string
		primary *stubProvider
		wantErr error
	}{
		{"parse failure", &stubProvider{resp: jsonResponse("not json")}, ErrParse},
		{"server error", &stubProvider{err: &llm.StatusError{Provider: "stub", StatusCode: 503}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secondary := &stubProvider{resp: jsonResponse(validJSON)}
			f := NewFallback(NewLLM(tt.primary), NewLLM(secondary))

			res, err := f.Extract(context.Background(), Page{Content: "x"})
			if err == nil || res != nil {
				t.Fatalf("Extract() = %+v, %v; want error", res, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if secondary.callCount() != 0 {
				t.Errorf("secondary called %d times, want 0", secondary.callCount())
			}
		})
	}
}

func TestFallback_BothRateLimited(t *testing.T) {
	primary := &stubProvider{name: "groq", err: rateLimited("groq")}
	secondary := &stubProvider{name: "openai", err: rateLimited("openai")}

	res, err := NewFallback(NewLLM(primary), NewLLM(secondary)).Extract(context.Background(), Page{Content: "x"})
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if !errors.Is(err, ErrQuota) {
		t.Errorf("error = %v, want ErrQuota", err)
	}
	if !strings.Contains(err.Error(), "tried: groq, openai") {
		t.Errorf("error = %q, should name both extractors", err.Error())
	}
	if primary.callCount() != 1 || secondary.callCount() != 1 {
		t.Errorf("calls = primary %d, secondary %d; want 1 and 1", primary.callCount(), secondary.callCount())
	}
}

func TestFallback_SecondaryParseFailure(t *testing.T) {
	primary := &stubProvider{err: rateLimited("stub")}
	secondary := &stubProvider{resp: jsonResponse("nope")}

	_, err := NewFallback(NewLLM(primary), NewLLM(secondary)).Extract(context.Background(), Page{Content: "x"})
	if !errors.Is(err, ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
	if errors.Is(err, ErrQuota) {
		t.Error("secondary parse failure should not be reported as quota")
	}
}

func TestFallback_Availability(t *testing.T) {
	secondary := &stubProvider{name: "openai", resp: jsonResponse(validJSON)}
	f := NewFallback(NewLLM(nil), NewLLM(secondary))

	if !f.Available() {
		t.Fatal("pair with one provider should be available")
	}
	res, err := f.Extract(context.Background(), Page{Content: "x"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !res.FellBack {
		t.Error("result from secondary should be marked FellBack")
	}

	none := NewFallback(NewLLM(nil), NewLLM(nil))
	if none.Available() {
		t.Error("pair without providers should not be available")
	}
	if _, err := none.Extract(context.Background(), Page{}); !errors.Is(err, ErrNoExtractorAvailable) {
		t.Errorf("error = %v, want ErrNoExtractorAvailable", err)
	}
	if f.Name() != "fallback(llm->openai)" {
		t.Errorf("Name() = %q", f.Name())
	}
}

// --- Strategy ---

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"heuristic", StrategyHeuristic, false},
		{"Model", StrategyModel, false},
		{" model-fallback ", StrategyModelFallback, false},
		{"magic", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	p := &stubProvider{name: "groq"}
	s := &stubProvider{name: "openai"}

	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"default is heuristic", Config{}, "heuristic", false},
		{"model", Config{Strategy: StrategyModel, Primary: p}, "groq", false},
		{"model without provider", Config{Strategy: StrategyModel}, "", true},
		{"fallback", Config{Strategy: StrategyModelFallback, Primary: p, Secondary: s}, "fallback(groq->openai)", false},
		{"fallback without secondary", Config{Strategy: StrategyModelFallback, Primary: p}, "", true},
		{"unknown", Config{Strategy: "magic"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ext.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", ext.Name(), tt.wantName)
			}
		})
	}
}

// --- Prompt helpers ---

func TestStripMarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripMarkdownCodeBlock(tt.in); got != tt.want {
			t.Errorf("StripMarkdownCodeBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateForError(t *testing.T) {
	short := "not json"
	if got := truncateForError(short); got != short {
		t.Errorf("truncateForError(%q) = %q", short, got)
	}

	got := truncateForError(strings.Repeat("é", 250))
	if !utf8.ValidString(got) {
		t.Fatalf("truncateForError() produced invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("é", 200) + "..."; got != want {
		t.Errorf("truncateForError() = %d runes, want %d", utf8.RuneCountInString(got), utf8.RuneCountInString(want))
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Build scalable systems.", 0)
	for _, want := range []string{"jobTitle", "companyName", "jobDescription", "Build scalable systems."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if got := TruncateContent("héllo wörld", 5); !strings.HasPrefix(got, "héllo\n\n[Content truncated") {
		t.Errorf("TruncateContent() = %q", got)
	}
	if got := TruncateContent("short", 0); got != "short" {
		t.Errorf("TruncateContent() = %q", got)
	}
}
