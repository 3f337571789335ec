package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// FallbackExtractor runs primary and, when primary is rate limited, makes
// exactly one attempt with secondary. Any other primary failure is returned
// as is.
type FallbackExtractor struct {
	primary   Extractor
	secondary Extractor
}

// NewFallback creates a primary/secondary pair.
func NewFallback(primary, secondary Extractor) *FallbackExtractor {
	return &FallbackExtractor{
		primary:   primary,
		secondary: secondary,
	}
}

// Extract runs the primary extractor, falling back once on a rate limit.
func (f *FallbackExtractor) Extract(ctx context.Context, page Page) (*Result, error) {
	if !f.primary.Available() {
		if !f.secondary.Available() {
			return nil, ErrNoExtractorAvailable
		}
		return f.runSecondary(ctx, page)
	}

	result, err := f.primary.Extract(ctx, page)
	if err == nil {
		return result, nil
	}
	if !shouldFallback(err) || !f.secondary.Available() {
		return nil, err
	}

	logger.WarnContext(ctx, "primary extractor rate limited, falling back",
		"primary", f.primary.Name(),
		"secondary", f.secondary.Name(),
		"url", page.URL,
		"error", err)

	result, err2 := f.runSecondary(ctx, page)
	if err2 != nil {
		return nil, fmt.Errorf("all extractors failed (tried: %s, %s): %w",
			f.primary.Name(), f.secondary.Name(), quotaError(err2))
	}
	return result, nil
}

func (f *FallbackExtractor) runSecondary(ctx context.Context, page Page) (*Result, error) {
	result, err := f.secondary.Extract(ctx, page)
	if err != nil {
		return nil, err
	}
	result.FellBack = true
	return result, nil
}

// Name returns the pair name.
func (f *FallbackExtractor) Name() string {
	return "fallback(" + f.primary.Name() + "->" + f.secondary.Name() + ")"
}

// Available returns true if either extractor is available.
func (f *FallbackExtractor) Available() bool {
	return f.primary.Available() || f.secondary.Available()
}

func shouldFallback(err error) bool {
	return errors.Is(err, ErrQuota) || llm.IsRateLimited(err)
}

// quotaError makes sure a rate limited secondary is reported as ErrQuota.
func quotaError(err error) error {
	if llm.IsRateLimited(err) && !errors.Is(err, ErrQuota) {
		return fmt.Errorf("%w: %w", ErrQuota, err)
	}
	return err
}
