package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/auth"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
)

const (
	AdminKey   = "admin"
	basicRealm = `Basic realm="Admin Area"`
)

// BasicAuth guards admin routes with the configured username and password.
func BasicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pw, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", basicRealm)
			common.Fail(c, http.StatusUnauthorized, common.ReasonUnauthorized, "Authentication required")
			return
		}
		if !auth.CheckAdminCredentials(user, pw, username, password) {
			c.Header("WWW-Authenticate", basicRealm)
			common.Fail(c, http.StatusUnauthorized, common.ReasonUnauthorized, "Invalid credentials")
			return
		}
		c.Set(AdminKey, user)
		c.Next()
	}
}

// AdminBearer accepts either the static admin access token or an admin JWT.
// With neither configured every request is rejected.
func AdminBearer(accessToken, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(h, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			common.Fail(c, http.StatusUnauthorized, common.ReasonUnauthorized, "Unauthorized access to analytics")
			return
		}
		if accessToken != "" && auth.EqualSecret(raw, accessToken) {
			c.Set(AdminKey, "access-token")
			c.Next()
			return
		}
		if jwtSecret != "" {
			if sub, err := auth.ParseJWT(raw, jwtSecret); err == nil {
				c.Set(AdminKey, sub)
				c.Next()
				return
			}
		}
		common.Fail(c, http.StatusUnauthorized, common.ReasonUnauthorized, "Unauthorized access to analytics")
	}
}
