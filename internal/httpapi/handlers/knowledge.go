package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
)

func (h *Handler) GetKnowledgeBase(c *gin.Context) {
	content, err := h.KnowledgeSvc.Get(c.Request.Context())
	if err != nil {
		logger.L.Errorw("fetch knowledge base failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, common.ReasonInternal, "Failed to fetch knowledge base")
		return
	}
	common.OK(c, gin.H{"content": content})
}

type updateKnowledgeReq struct {
	Content *string `json:"content"`
}

func (h *Handler) UpdateKnowledgeBase(c *gin.Context) {
	var req updateKnowledgeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "Content must be a string")
		return
	}
	kb, err := h.KnowledgeSvc.Replace(c.Request.Context(), *req.Content)
	if err != nil {
		logger.L.Errorw("update knowledge base failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, common.ReasonInternal, "Failed to update knowledge base")
		return
	}
	common.OK(c, gin.H{"message": "Knowledge base updated successfully", "id": kb.ID})
}
