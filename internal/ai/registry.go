package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/suPer8Hu/recruiter-chat/internal/config"
)

// ProviderFactory builds a provider; an empty model selects the configured default.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry maps AI_PROVIDER names to factories. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]ProviderFactory{}}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) Register(name string, f ProviderFactory) {
	r.mu.Lock()
	r.factories[normalizeName(name)] = f
	r.mu.Unlock()
}

func (r *Registry) Get(ctx context.Context, name, model string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f(ctx, model)
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func orDefault(model, def string) string {
	if model == "" {
		return def
	}
	return model
}

// DefaultRegistry registers the providers selectable through AI_PROVIDER.
func DefaultRegistry(cfg config.Config) *Registry {
	r := NewRegistry()
	r.Register("openai", func(_ context.Context, model string) (Provider, error) {
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   orDefault(model, cfg.OpenAIModel),
		})
	})
	// OpenRouter speaks the OpenAI wire format.
	r.Register("openrouter", func(_ context.Context, model string) (Provider, error) {
		return NewOpenAIProvider(OpenAIConfig{
			Name:    "openrouter",
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   orDefault(model, cfg.OpenRouterModel),
			Headers: map[string]string{
				"HTTP-Referer": cfg.OpenRouterSiteURL,
				"X-Title":      cfg.OpenRouterAppName,
			},
		})
	})
	r.Register("ollama", func(_ context.Context, model string) (Provider, error) {
		return NewOllamaProvider(OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   orDefault(model, cfg.OllamaModel),
		}), nil
	})
	return r
}
