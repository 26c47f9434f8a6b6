package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/suPer8Hu/recruiter-chat/internal/ai"
	"github.com/suPer8Hu/recruiter-chat/internal/history"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/telemetry"
)

// FallbackResponse is returned when the provider answers without content.
const FallbackResponse = "I apologize, but I was unable to generate a response. Please try again."

// PromptSource supplies the system prompt for every completion.
type PromptSource interface {
	SystemPrompt(ctx context.Context) string
}

type Gateway struct {
	provider ai.Provider
	prompt   PromptSource
	opts     ai.Options
	breaker  *gobreaker.CircuitBreaker
	metrics  *telemetry.Metrics
}

// NewGateway guards provider with a circuit breaker that opens after five
// consecutive failures and probes again after 30s.
func NewGateway(provider ai.Provider, prompt PromptSource, opts ai.Options, metrics *telemetry.Metrics) *Gateway {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "completion:" + provider.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L.Warnw("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Gateway{provider: provider, prompt: prompt, opts: opts, breaker: breaker, metrics: metrics}
}

// Generate sends [system prompt] + hist + [message] and returns the first
// completion's text. Failures are wrapped in ErrUpstream and not retried.
func (g *Gateway) Generate(ctx context.Context, message string, hist []history.Entry) (string, error) {
	msgs := make([]ai.Message, 0, len(hist)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: g.prompt.SystemPrompt(ctx)})
	for _, e := range hist {
		msgs = append(msgs, ai.Message{Role: string(e.Role), Content: e.Content})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: message})

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.provider.Chat(ctx, msgs, g.opts)
	})
	g.metrics.RecordCompletion(ctx, g.provider.Name(), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	text, _ := out.(string)
	if text == "" {
		return FallbackResponse, nil
	}
	return text, nil
}
