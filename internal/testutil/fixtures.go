package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"gorm.io/gorm"
)

// TokenOpt tweaks a fixture token before it is inserted.
type TokenOpt func(*models.Token)

func WithUsage(used, max int) TokenOpt {
	return func(t *models.Token) {
		t.UsedMessages = used
		t.MaxMessages = max
	}
}

func WithExpiry(at time.Time) TokenOpt {
	return func(t *models.Token) { t.ExpiresAt = at }
}

func WithLabel(label string) TokenOpt {
	return func(t *models.Token) { t.Label = label }
}

func WithCompany(company string) TokenOpt {
	return func(t *models.Token) { t.Company = &company }
}

func WithCreatedAt(at time.Time) TokenOpt {
	return func(t *models.Token) { t.CreatedAt = at }
}

// CreateToken inserts a valid token (30 messages, expiring in a week) unless opts say otherwise.
func CreateToken(t testing.TB, gdb *gorm.DB, opts ...TokenOpt) *models.Token {
	t.Helper()
	tok := &models.Token{
		ID:          ulid.Make().String(),
		Token:       uuid.NewString(),
		Label:       "Acme recruiter",
		MaxMessages: 30,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	}
	for _, o := range opts {
		o(tok)
	}
	if err := gdb.Create(tok).Error; err != nil {
		t.Fatalf("create token: %v", err)
	}
	return tok
}

// Past is a moment safely before now.
func Past() time.Time {
	return time.Now().Add(-time.Hour)
}
