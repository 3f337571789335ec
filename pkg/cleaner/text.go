package cleaner

import (
	"regexp"
	"strings"
)

var (
	bodyPattern = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)

	// Elements dropped together with their content, in removal order.
	boilerplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<nav[^>]*>.*?</nav>`),
		regexp.MustCompile(`(?is)<header[^>]*>.*?</header>`),
		regexp.MustCompile(`(?is)<footer[^>]*>.*?</footer>`),
		regexp.MustCompile(`(?is)<aside[^>]*>.*?</aside>`),
	}

	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	blankLinesPattern = regexp.MustCompile(`(\n\s*){3,}`)
	hspacePattern     = regexp.MustCompile(`[^\S\n]+`)
)

// TextCleaner reduces an HTML page to plain text. The output never contains
// markup tags and is never longer than MaxChars runes. Cleaning its own
// output returns the same string, apart from whitespace left at the cut.
type TextCleaner struct {
	MaxChars int
}

// NewText creates a TextCleaner. maxChars <= 0 selects DefaultMaxChars.
func NewText(maxChars int) *TextCleaner {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &TextCleaner{MaxChars: maxChars}
}

// Clean normalizes html. It never fails; the error is part of the Cleaner
// contract.
func (c *TextCleaner) Clean(html string) (string, error) {
	content := html
	if m := bodyPattern.FindStringSubmatch(content); m != nil {
		content = m[1]
	}

	for _, re := range boilerplatePatterns {
		content = re.ReplaceAllString(content, "")
	}

	content = tagPattern.ReplaceAllString(content, "\n")
	content = blankLinesPattern.ReplaceAllString(content, "\n\n")
	content = hspacePattern.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)

	return truncate(content, c.maxChars()), nil
}

// Name returns the cleaner type.
func (c *TextCleaner) Name() string {
	return "text"
}

func (c *TextCleaner) maxChars() int {
	if c.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return c.MaxChars
}

// truncate cuts s to exactly n runes when it is longer.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
