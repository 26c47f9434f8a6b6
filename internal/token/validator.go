package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"github.com/suPer8Hu/recruiter-chat/internal/telemetry"
)

// ValidationContext describes where a token was presented. It only feeds analytics.
type ValidationContext struct {
	AccessType    models.AccessType
	FullURL       string
	UserAgent     string
	IPAddress     string
	Metadata      map[string]any
	SkipAnalytics bool
}

type Result struct {
	Valid   bool
	Token   *models.Token
	Reason  models.FailureReason
	Message string
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Reason: r.Reason, Message: r.Message}
}

type Validator struct {
	repo     *Repo
	recorder analytics.Recorder
	metrics  *telemetry.Metrics
	contact  string
	now      func() time.Time
}

// NewValidator builds a validator; contact names the person recruiters are told to reach out to.
func NewValidator(repo *Repo, recorder analytics.Recorder, metrics *telemetry.Metrics, contact string) *Validator {
	if recorder == nil {
		recorder = analytics.Nop
	}
	if contact == "" {
		contact = "the candidate"
	}
	return &Validator{repo: repo, recorder: recorder, metrics: metrics, contact: contact, now: time.Now}
}

// Validate checks existence, expiry and message budget in that order.
// It never mutates the token.
func (v *Validator) Validate(ctx context.Context, tokenString string, vc ValidationContext) Result {
	tok, err := v.repo.GetByToken(ctx, tokenString)
	switch {
	case errors.Is(err, ErrNotFound):
		return v.reject(ctx, tokenString, vc, models.ReasonInvalidToken)
	case err != nil:
		logger.L.Errorw("token validation failed", "err", err)
		return v.reject(ctx, tokenString, vc, models.ReasonServerError)
	case tok.ExpiresAt.Before(v.now()):
		return v.reject(ctx, tokenString, vc, models.ReasonTokenExpired)
	case tok.UsedMessages >= tok.MaxMessages:
		return v.reject(ctx, tokenString, vc, models.ReasonMessageLimitReached)
	}
	return Result{Valid: true, Token: tok}
}

// RecordFailure logs a rejection that happened before a token could be looked up (e.g. no_token).
func (v *Validator) RecordFailure(ctx context.Context, tokenString string, vc ValidationContext, reason models.FailureReason) {
	v.metrics.RecordValidationFailure(ctx, string(reason), string(vc.AccessType))
	if vc.SkipAnalytics {
		return
	}
	ev := &models.TokenAnalyticsEvent{
		FailureReason: reason,
		TokenString:   analytics.StrPtr(tokenString),
		UserAgent:     analytics.StrPtr(vc.UserAgent),
		IPAddress:     analytics.StrPtr(vc.IPAddress),
		FullURL:       analytics.StrPtr(vc.FullURL),
		Metadata:      vc.Metadata,
	}
	if vc.AccessType.Valid() {
		at := vc.AccessType
		ev.AccessType = &at
	}
	// analytics must never mask the primary failure
	if err := v.recorder.Record(ctx, analytics.Sanitize(ev)); err != nil {
		logger.L.Warnw("record token analytics failed", "reason", reason, "err", err)
	}
}

// Message is the user facing text for a rejection reason.
func (v *Validator) Message(reason models.FailureReason) string {
	switch reason {
	case models.ReasonMessageLimitReached:
		return fmt.Sprintf("Maximum message limit reached. Please contact %s if you'd like to continue the conversation.", v.contact)
	case models.ReasonServerError:
		return "Internal server error"
	case models.ReasonNoToken:
		return "An access link is required to use this chat."
	default:
		return fmt.Sprintf("This link doesn't seem to be active anymore. Please contact %s to regain access.", v.contact)
	}
}

func (v *Validator) reject(ctx context.Context, tokenString string, vc ValidationContext, reason models.FailureReason) Result {
	v.RecordFailure(ctx, tokenString, vc, reason)
	return Result{Reason: reason, Message: v.Message(reason)}
}
