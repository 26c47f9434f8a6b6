package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
)

func (h *Handler) ListTokens(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.TokenSvc.List(c.Request.Context(), token.ListQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		writeTokenError(c, err)
		return
	}
	common.OK(c, out)
}

func (h *Handler) GenerateToken(c *gin.Context) {
	var req token.GenerateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "invalid json")
		return
	}
	out, err := h.TokenSvc.Generate(c.Request.Context(), req)
	if err != nil {
		writeTokenError(c, err)
		return
	}
	common.OK(c, out)
}

func (h *Handler) GetToken(c *gin.Context) {
	out, err := h.TokenSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeTokenError(c, err)
		return
	}
	common.OK(c, out)
}

func (h *Handler) UpdateToken(c *gin.Context) {
	var req token.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "invalid json")
		return
	}
	out, err := h.TokenSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeTokenError(c, err)
		return
	}
	common.OK(c, out)
}

func writeTokenError(c *gin.Context, err error) {
	var ierr *token.InputError
	switch {
	case errors.As(err, &ierr):
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, ierr.Msg)
	case errors.Is(err, token.ErrNotFound):
		common.Fail(c, http.StatusNotFound, common.ReasonNotFound, "Token not found")
	default:
		logger.L.Errorw("token admin request failed", "path", c.FullPath(), "err", err)
		common.Internal(c)
	}
}
