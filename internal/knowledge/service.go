// Package knowledge stores the candidate facts document and turns it into
// the system prompt sent with every completion.
package knowledge

import (
	"context"

	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

type Service struct {
	repo   *Repo
	prompt *PromptBuilder
}

// NewService wires the admin operations; prompt may be nil when no chat
// gateway runs in the process (e.g. the admin CLI).
func NewService(repo *Repo, prompt *PromptBuilder) *Service {
	return &Service{repo: repo, prompt: prompt}
}

// Current satisfies Source so the prompt builder can read the stored document.
func (s *Service) Current(ctx context.Context) (string, error) {
	kb, err := s.repo.Current(ctx)
	if err != nil || kb == nil {
		return "", err
	}
	return kb.Content, nil
}

// Get returns the stored document, "" when none exists.
func (s *Service) Get(ctx context.Context) (string, error) {
	return s.Current(ctx)
}

// Replace overwrites the document and drops the cached prompt.
func (s *Service) Replace(ctx context.Context, content string) (*models.KnowledgeBase, error) {
	kb, err := s.repo.Save(ctx, content)
	if err != nil {
		return nil, err
	}
	if s.prompt != nil {
		s.prompt.Invalidate()
	}
	return kb, nil
}

// SetPrompt attaches the builder whose cache Replace invalidates.
func (s *Service) SetPrompt(p *PromptBuilder) {
	s.prompt = p
}
