package extractor

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// Strategy selects how fields are recovered.
type Strategy string

const (
	// StrategyHeuristic uses fixed patterns only.
	StrategyHeuristic Strategy = "heuristic"
	// StrategyModel asks a single language model.
	StrategyModel Strategy = "model"
	// StrategyModelFallback asks a primary model and retries once on a
	// secondary model when the primary is rate limited.
	StrategyModelFallback Strategy = "model-fallback"
)

// Strategies lists the supported strategies.
var Strategies = []Strategy{StrategyHeuristic, StrategyModel, StrategyModelFallback}

// ParseStrategy converts a strategy name, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	names := make([]string, len(Strategies))
	for i, known := range Strategies {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown strategy: %q (available: %s)", name, strings.Join(names, ", "))
}

// Config describes an extractor to build.
type Config struct {
	Strategy Strategy

	// Primary is required by the model strategies.
	Primary llm.Provider

	// Secondary is required by StrategyModelFallback.
	Secondary llm.Provider

	Options []Option
}

// New builds the extractor for cfg.
func New(cfg Config) (Extractor, error) {
	switch cfg.Strategy {
	case StrategyHeuristic, "":
		return NewHeuristic(), nil
	case StrategyModel:
		if cfg.Primary == nil {
			return nil, fmt.Errorf("strategy %s: %w", cfg.Strategy, ErrNoExtractorAvailable)
		}
		return NewLLM(cfg.Primary, cfg.Options...), nil
	case StrategyModelFallback:
		if cfg.Primary == nil || cfg.Secondary == nil {
			return nil, fmt.Errorf("strategy %s needs a primary and a secondary provider: %w", cfg.Strategy, ErrNoExtractorAvailable)
		}
		return NewFallback(
			NewLLM(cfg.Primary, cfg.Options...),
			NewLLM(cfg.Secondary, cfg.Options...),
		), nil
	default:
		_, err := ParseStrategy(string(cfg.Strategy))
		return nil, err
	}
}
