// Package ai adapts chat completion backends behind one Provider interface.
package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are sampling parameters sent with every request. Zero values leave
// the provider default in place.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Provider returns the assistant content for a conversation. An empty string
// with a nil error means the backend answered without content.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}
