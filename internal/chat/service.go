// Package chat runs the token gated conversation: session creation, history,
// completion and usage accounting.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/history"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"github.com/suPer8Hu/recruiter-chat/internal/telemetry"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
)

// Generator produces the assistant reply for a message and prior history.
type Generator interface {
	Generate(ctx context.Context, message string, hist []history.Entry) (string, error)
}

type Service struct {
	repo      *Repo
	validator *token.Validator
	gateway   Generator
	history   history.Cache
	metrics   *telemetry.Metrics
}

func NewService(repo *Repo, validator *token.Validator, gateway Generator, cache history.Cache, metrics *telemetry.Metrics) *Service {
	if cache == nil {
		cache = history.NewMemoryCache()
	}
	return &Service{repo: repo, validator: validator, gateway: gateway, history: cache, metrics: metrics}
}

// CreateSession opens a new session for a valid token. Every call creates a
// fresh session, even for the same token.
func (s *Service) CreateSession(ctx context.Context, tokenString string, vc token.ValidationContext) (*models.Session, error) {
	vc.AccessType = models.AccessPageAccess
	if strings.TrimSpace(tokenString) == "" {
		s.validator.RecordFailure(ctx, "", vc, models.ReasonNoToken)
		return nil, ErrTokenRequired
	}

	res := s.validator.Validate(ctx, tokenString, vc)
	if err := res.Err(); err != nil {
		return nil, err
	}

	sid, err := common.NewOpaqueID()
	if err != nil {
		return nil, err
	}
	sess := &models.Session{SessionID: sid, TokenID: res.Token.ID}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

type SendInput struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

type Reply struct {
	Response          string `json:"response"`
	RemainingMessages int    `json:"remainingMessages"`
}

// Send validates the token, asks the gateway for a reply with the token's
// history, then charges the message and stores the exchange.
//
// Accounting runs detached from ctx: once a reply exists, a client
// disconnect does not leave the exchange half recorded.
func (s *Service) Send(ctx context.Context, in SendInput, vc token.ValidationContext) (*Reply, error) {
	if strings.TrimSpace(in.Message) == "" || strings.TrimSpace(in.Token) == "" {
		return nil, ErrMessageRequired
	}
	vc.AccessType = models.AccessMessageSend

	res := s.validator.Validate(ctx, in.Token, vc)
	if err := res.Err(); err != nil {
		return nil, err
	}

	hist, err := s.history.Get(ctx, in.Token)
	if err != nil {
		logger.L.Warnw("load history failed, continuing without it", "err", err)
		hist = nil
	}

	response, err := s.gateway.Generate(ctx, in.Message, hist)
	if err != nil {
		return nil, err
	}

	actx := context.WithoutCancel(ctx)
	ex, err := s.repo.RecordExchange(actx, res.Token.ID, in.SessionID, in.Message, response)
	if errors.Is(err, ErrUsageExhausted) {
		s.validator.RecordFailure(actx, in.Token, vc, models.ReasonMessageLimitReached)
		verr := &token.ValidationError{
			Reason:  models.ReasonMessageLimitReached,
			Message: s.validator.Message(models.ReasonMessageLimitReached),
		}
		return nil, fmt.Errorf("%w: %w", ErrUsageExhausted, verr)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExchange(actx)

	user, assistant := history.Exchange(in.Message, response)
	if _, err := s.history.Append(actx, in.Token, user, assistant); err != nil {
		logger.L.Warnw("append history failed", "err", err)
	}

	return &Reply{Response: response, RemainingMessages: ex.Remaining()}, nil
}
