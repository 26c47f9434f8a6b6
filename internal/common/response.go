package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Reason codes carried in error bodies next to the human readable message.
const (
	ReasonInvalidInput = "invalid_input"
	ReasonUnauthorized = "unauthorized"
	ReasonForbidden    = "forbidden"
	ReasonNotFound     = "not_found"
	ReasonInternal     = "internal_error"
	ReasonRateLimited  = "rate_limited"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Fail(c *gin.Context, httpStatus int, reason string, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"error":  msg,
		"reason": reason,
	})
}

// Internal hides the cause from the client; callers log it first.
func Internal(c *gin.Context) {
	Fail(c, http.StatusInternalServerError, ReasonInternal, "Internal server error")
}
