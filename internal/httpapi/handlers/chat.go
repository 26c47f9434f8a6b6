package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/chat"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
)

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

// validationContext describes the caller for analytics. fullURL falls back
// to the Referer header.
func validationContext(c *gin.Context, fullURL string) token.ValidationContext {
	if fullURL == "" {
		fullURL = c.GetHeader("Referer")
	}
	return token.ValidationContext{
		FullURL:   fullURL,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
		Metadata: map[string]any{
			"requestId": middleware.GetRequestID(c),
			"endpoint":  c.FullPath(),
		},
	}
}

type sendMessageReq struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	FullURL   string `json:"fullUrl"`
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "invalid json")
		return
	}

	reply, err := h.ChatSvc.Send(c.Request.Context(), chat.SendInput{
		Message:   req.Message,
		Token:     req.Token,
		SessionID: req.SessionID,
	}, validationContext(c, req.FullURL))
	if err != nil {
		writeChatError(c, err)
		return
	}
	common.OK(c, reply)
}

type createSessionReq struct {
	Token   string `json:"token"`
	FullURL string `json:"fullUrl"`
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "invalid json")
		return
	}

	sess, err := h.ChatSvc.CreateSession(c.Request.Context(), req.Token, validationContext(c, req.FullURL))
	if err != nil {
		writeChatError(c, err)
		return
	}
	common.OK(c, gin.H{"sessionId": sess.SessionID, "createdAt": sess.CreatedAt})
}

func writeChatError(c *gin.Context, err error) {
	var verr *token.ValidationError
	switch {
	case errors.Is(err, chat.ErrMessageRequired), errors.Is(err, chat.ErrTokenRequired):
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, capitalize(err.Error()))
	case errors.As(err, &verr):
		if verr.Reason == models.ReasonServerError {
			common.Fail(c, http.StatusInternalServerError, string(verr.Reason), verr.Message)
			return
		}
		common.Fail(c, http.StatusUnauthorized, string(verr.Reason), verr.Message)
	case errors.Is(err, chat.ErrUpstream):
		logger.L.Errorw("completion failed", "err", err)
		common.Internal(c)
	default:
		logger.L.Errorw("chat request failed", "err", err)
		common.Internal(c)
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
