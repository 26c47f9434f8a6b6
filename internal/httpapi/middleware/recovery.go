package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L.Errorw("panic recovered", "panic", r, "path", c.Request.URL.Path, "request_id", GetRequestID(c))
				common.Internal(c)
			}
		}()
		c.Next()
	}
}
