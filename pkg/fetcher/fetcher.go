// Package fetcher retrieves job posting pages.
// Implement the Fetcher interface to plug in fetchers with different
// rendering, authentication or anti-bot requirements.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL. A failed fetch returns a
	// Content with an empty HTML field together with a *FetchError.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls fetching behavior for a single request.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
	Cookies         []Cookie
}

// Cookie represents an HTTP cookie.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

var (
	// ErrFetchFailed marks any fetch that produced no usable page:
	// network errors, timeouts and non-2xx responses.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrAntiBot indicates the site's anti-bot protection blocked the request.
	ErrAntiBot = errors.New("anti-bot protection detected")
)

// FetchError describes a failed fetch. It matches ErrFetchFailed and the
// underlying cause with errors.Is.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailed}
	}
	return []error{ErrFetchFailed, e.Err}
}

// Failed builds the Content/error pair a fetcher returns on failure.
func Failed(url string, status int, err error) (Content, error) {
	return Content{URL: url, StatusCode: status, FetchedAt: time.Now()},
		&FetchError{URL: url, StatusCode: status, Err: err}
}

// IsSuccess reports whether an HTTP status code is in the 2xx range.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
