// Package cleaner turns raw job posting HTML into text suitable for
// field recovery.
package cleaner

// DefaultMaxChars caps normalized content handed to extractors.
const DefaultMaxChars = 20000

// Cleaner transforms HTML content into a cleaner format for extraction.
type Cleaner interface {
	// Clean transforms the input HTML into a cleaned format.
	// The output format depends on the implementation (plain text, HTML, etc.).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Default returns the cleaner used when none is configured: a TextCleaner
// capped at maxChars (DefaultMaxChars when maxChars <= 0).
func Default(maxChars int) Cleaner {
	return NewText(maxChars)
}
