package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/config"
	"github.com/suPer8Hu/recruiter-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/recruiter-chat/internal/httpapi/middleware"
	"github.com/suPer8Hu/recruiter-chat/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(cfg config.Config, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(otelgin.Middleware(telemetry.ServiceName))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, common.ReasonNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, common.ReasonInvalidInput, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	api := r.Group("/api")

	// widget
	public := api.Group("/")
	public.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	public.POST("/chat", h.SendChatMessage)
	public.POST("/sessions", h.CreateChatSession)
	public.POST("/analytics", h.LogAnalytics)

	// admin (HTTP Basic)
	admin := api.Group("/")
	admin.Use(middleware.BasicAuth(cfg.AdminUsername, cfg.AdminPassword))
	admin.GET("/tokens", h.ListTokens)
	admin.POST("/tokens/generate", h.GenerateToken)
	admin.GET("/tokens/:id", h.GetToken)
	admin.PATCH("/tokens/:id", h.UpdateToken)
	admin.GET("/knowledge-base", h.GetKnowledgeBase)
	admin.POST("/knowledge-base", h.UpdateKnowledgeBase)
	admin.POST("/admin/session", h.IssueAdminSession)

	// admin (bearer)
	api.GET("/analytics/stats", middleware.AdminBearer(cfg.AdminAccessToken, cfg.AdminJWTSecret()), h.AnalyticsStats)

	return r
}
