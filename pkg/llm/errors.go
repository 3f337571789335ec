package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ErrRateLimited matches any *StatusError carrying HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// StatusError is a non-success response from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration // zero when the provider sent no Retry-After
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Is reports whether e is a rate limit when compared with ErrRateLimited.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err is a provider rate-limit response.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// wrapSDKError converts the API errors of the provider SDKs into *StatusError.
// Transport failures and context errors are wrapped unchanged.
func wrapSDKError(provider string, err error) error {
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return &StatusError{
			Provider:   provider,
			StatusCode: oaErr.StatusCode,
			RetryAfter: retryAfter(oaErr.Response),
			Err:        err,
		}
	}
	var anErr *anthropic.Error
	if errors.As(err, &anErr) {
		return &StatusError{
			Provider:   provider,
			StatusCode: anErr.StatusCode,
			RetryAfter: retryAfter(anErr.Response),
			Err:        err,
		}
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
