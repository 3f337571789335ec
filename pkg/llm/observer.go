package llm

import (
	"context"
	"time"

	"github.com/jmylchreest/jobscribe/internal/logger"
)

// Observer receives a notification after every provider call, successful
// or not. Implementations should return quickly.
type Observer interface {
	OnLLMCall(ctx context.Context, event CallEvent)
}

// CallEvent describes one provider call.
type CallEvent struct {
	Provider  string
	Model     string
	Messages  int // number of messages sent
	InputSize int // bytes of message content sent
	Response  *Response
	Error     error
	Duration  time.Duration
	StartedAt time.Time
}

// ObserverFunc is a convenience type for using a function as an Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnLLMCall implements Observer.
func (f ObserverFunc) OnLLMCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}

// MultiObserver dispatches each event to several observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates an observer that dispatches to multiple observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// OnLLMCall dispatches the event to all registered observers.
func (m *MultiObserver) OnLLMCall(ctx context.Context, event CallEvent) {
	for _, obs := range m.observers {
		obs.OnLLMCall(ctx, event)
	}
}

// LogObserver logs every call through the package logger.
func LogObserver() Observer {
	return ObserverFunc(func(ctx context.Context, e CallEvent) {
		if e.Error != nil {
			logger.WarnContext(ctx, "llm call failed",
				"provider", e.Provider,
				"model", e.Model,
				"duration", e.Duration,
				"rate_limited", IsRateLimited(e.Error),
				"error", e.Error)
			return
		}
		logger.DebugContext(ctx, "llm call complete",
			"provider", e.Provider,
			"model", e.Model,
			"duration", e.Duration,
			"input_tokens", e.Response.Usage.InputTokens,
			"output_tokens", e.Response.Usage.OutputTokens,
			"finish_reason", e.Response.FinishReason)
	})
}

// Observe wraps p so that every Execute call is reported to obs.
// A nil observer returns p unchanged.
func Observe(p Provider, obs Observer) Provider {
	if obs == nil {
		return p
	}
	return &observedProvider{Provider: p, obs: obs}
}

type observedProvider struct {
	Provider
	obs Observer
}

func (o *observedProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	size := 0
	for _, m := range req.Messages {
		size += len(m.Content)
	}

	start := time.Now()
	resp, err := o.Provider.Execute(ctx, req)

	model := o.Provider.Model()
	if resp != nil && resp.Model != "" {
		model = resp.Model
	}
	o.obs.OnLLMCall(ctx, CallEvent{
		Provider:  o.Provider.Name(),
		Model:     model,
		Messages:  len(req.Messages),
		InputSize: size,
		Response:  resp,
		Error:     err,
		Duration:  time.Since(start),
		StartedAt: start,
	})
	return resp, err
}
