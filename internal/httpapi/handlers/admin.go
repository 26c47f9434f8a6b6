package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/auth"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
)

// IssueAdminSession exchanges Basic credentials for a short lived bearer
// token usable on the analytics stats endpoint.
func (h *Handler) IssueAdminSession(c *gin.Context) {
	secret := h.Cfg.AdminJWTSecret()
	if secret == "" {
		common.Fail(c, http.StatusServiceUnavailable, common.ReasonInternal, "Admin sessions are disabled: set JWT_SECRET")
		return
	}
	tok, exp, err := auth.SignJWT(c.GetString(middleware.AdminKey), secret, h.Cfg.AdminJWTTTL)
	if err != nil {
		logger.L.Errorw("sign admin jwt failed", "err", err)
		common.Internal(c)
		return
	}
	common.OK(c, gin.H{"token": tok, "expiresAt": exp})
}
