package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jmylchreest/jobscribe/internal/logger"
)

var (
	titleLabel   = regexp.MustCompile(`(?i)job title\s*:[ \t]*([^\n]+)`)
	companyLabel = regexp.MustCompile(`(?i)\bcompany\s*:[ \t]*([^\n]+)`)
	// "at" followed by one or more capitalized words on the same line.
	companyAt = regexp.MustCompile(`\bat[ \t]+([A-Z][\w&'.-]*(?:[ \t]+[A-Z][\w&'.-]*)*)`)

	paragraphBreak = regexp.MustCompile(`\n[^\S\n]*\n`)
)

// descriptionAnchors are tried in order; the first one followed by a
// non-empty block wins. They match case-insensitively anywhere in a line.
var descriptionAnchors = []*regexp.Regexp{
	anchorPattern("About the job"),
	anchorPattern("Job Description"),
	anchorPattern("Responsibilities"),
}

func anchorPattern(header string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(header))
}

// Heuristic recovers fields with fixed patterns. It makes no network calls
// and returns the same result for the same page.
type Heuristic struct{}

// NewHeuristic creates a heuristic extractor.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Extract recovers posting fields from the page.
func (h *Heuristic) Extract(ctx context.Context, page Page) (*Result, error) {
	start := time.Now()

	p := Posting{
		JobTitle:       heuristicTitle(page),
		CompanyName:    heuristicCompany(page.Content),
		JobDescription: heuristicDescription(page.Content),
	}

	logger.DebugContext(ctx, "heuristic extraction complete",
		"url", page.URL,
		"has_title", p.JobTitle != "",
		"has_company", p.CompanyName != "",
		"description_size", len(p.JobDescription))

	return &Result{
		Posting:  p,
		Provider: h.Name(),
		Duration: time.Since(start),
	}, nil
}

// Name returns the extractor name.
func (h *Heuristic) Name() string {
	return "heuristic"
}

// Available always returns true.
func (h *Heuristic) Available() bool {
	return true
}

func heuristicTitle(page Page) string {
	if page.HTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML)); err == nil {
			if title := collapse(doc.Find("h1").First().Text()); title != "" {
				return title
			}
		}
	}
	if m := titleLabel.FindStringSubmatch(page.Content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func heuristicCompany(content string) string {
	if m := companyLabel.FindStringSubmatch(content); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	if m := companyAt.FindStringSubmatch(content); m != nil {
		return strings.TrimRight(m[1], ".,;:'-")
	}
	return ""
}

func heuristicDescription(content string) string {
	for _, anchor := range descriptionAnchors {
		loc := anchor.FindStringIndex(content)
		if loc == nil {
			continue
		}
		rest := content[loc[0]:]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			continue
		}
		if block := firstBlock(rest[nl+1:]); block != "" {
			return block
		}
	}
	return content
}

// firstBlock returns the first non-empty paragraph of s.
func firstBlock(s string) string {
	for _, block := range paragraphBreak.Split(s, -1) {
		if b := strings.TrimSpace(block); b != "" {
			return b
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
