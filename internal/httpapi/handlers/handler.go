package handlers

import (
	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/chat"
	"github.com/suPer8Hu/recruiter-chat/internal/config"
	"github.com/suPer8Hu/recruiter-chat/internal/knowledge"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
)

type Handler struct {
	Cfg          config.Config
	ChatSvc      *chat.Service
	TokenSvc     *token.Service
	KnowledgeSvc *knowledge.Service
	Stats        *analytics.Store
	// Events receives client reported validation failures.
	Events analytics.Recorder
}

func NewHandler(cfg config.Config, chatSvc *chat.Service, tokenSvc *token.Service, kb *knowledge.Service, stats *analytics.Store, events analytics.Recorder) *Handler {
	if events == nil {
		events = stats
	}
	return &Handler{Cfg: cfg, ChatSvc: chatSvc, TokenSvc: tokenSvc, KnowledgeSvc: kb, Stats: stats, Events: events}
}
