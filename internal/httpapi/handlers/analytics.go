package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
)

type analyticsReq struct {
	FailureReason models.FailureReason `json:"failureReason"`
	TokenString   string               `json:"tokenString"`
	UserAgent     string               `json:"userAgent"`
	IPAddress     string               `json:"ipAddress"`
	AccessType    models.AccessType    `json:"accessType"`
	FullURL       string               `json:"fullUrl"`
	Metadata      map[string]any       `json:"metadata"`
}

// LogAnalytics accepts validation failures observed by the widget.
// In production only same-origin callers are accepted.
func (h *Handler) LogAnalytics(c *gin.Context) {
	if h.Cfg.IsProduction() && !sameOrigin(c, h.Cfg.AppURL) {
		common.Fail(c, http.StatusForbidden, common.ReasonForbidden, "Unauthorized")
		return
	}

	var req analyticsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "invalid json")
		return
	}
	if !req.FailureReason.Valid() {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "Invalid failure reason")
		return
	}
	if req.AccessType != "" && !req.AccessType.Valid() {
		common.Fail(c, http.StatusBadRequest, common.ReasonInvalidInput, "Invalid access type")
		return
	}

	ev := &models.TokenAnalyticsEvent{
		FailureReason: req.FailureReason,
		TokenString:   analytics.StrPtr(req.TokenString),
		UserAgent:     analytics.StrPtr(firstNonEmpty(req.UserAgent, c.Request.UserAgent())),
		IPAddress:     analytics.StrPtr(firstNonEmpty(req.IPAddress, c.ClientIP())),
		FullURL:       analytics.StrPtr(req.FullURL),
		Metadata:      req.Metadata,
	}
	if req.AccessType != "" {
		at := req.AccessType
		ev.AccessType = &at
	}

	if err := h.Events.Record(c.Request.Context(), analytics.Sanitize(ev)); err != nil {
		logger.L.Errorw("log analytics failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, common.ReasonInternal, "Failed to log analytics")
		return
	}
	common.OK(c, gin.H{"success": true})
}

func (h *Handler) AnalyticsStats(c *gin.Context) {
	days := analytics.DefaultStatsDays
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	stats, err := h.Stats.Stats(c.Request.Context(), days)
	if err != nil {
		logger.L.Errorw("analytics stats failed", "err", err)
		common.Fail(c, http.StatusInternalServerError, common.ReasonInternal, "Failed to get analytics stats")
		return
	}
	common.OK(c, stats)
}

// sameOrigin accepts a request whose Origin equals appURL or whose Referer
// is appURL or a path below it.
func sameOrigin(c *gin.Context, appURL string) bool {
	if appURL == "" {
		return false
	}
	if o := c.GetHeader("Origin"); o != "" && o == appURL {
		return true
	}
	ref := c.GetHeader("Referer")
	return ref != "" && (ref == appURL || strings.HasPrefix(ref, appURL+"/"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
