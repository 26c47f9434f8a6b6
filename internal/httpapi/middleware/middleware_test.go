package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/recruiter-chat/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(AdminKey)) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBasicAuth(t *testing.T) {
	r := engine(BasicAuth("admin", "s3cret"))

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="Admin Area"`, w.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth("admin", "wrong")
	w = do(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials","reason":"unauthorized"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth("admin", "s3cret")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestBasicAuth_BcryptPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	r := engine(BasicAuth("admin", hash))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth("admin", "s3cret")
	assert.Equal(t, http.StatusOK, do(r, req).Code)
}

func TestBasicAuth_UnconfiguredRejectsAll(t *testing.T) {
	r := engine(BasicAuth("", ""))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth("", "")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestAdminBearer(t *testing.T) {
	r := engine(AdminBearer("static-token", "jwt-secret"))

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer static-token")
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	jwt, _, err := auth.SignJWT("admin", "jwt-secret", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+jwt)
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())

	forged, _, err := auth.SignJWT("admin", "other-secret", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestAdminBearer_EmptyAccessTokenNeverMatches(t *testing.T) {
	r := engine(AdminBearer("", ""))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestRateLimit(t *testing.T) {
	r := engine(RateLimit(0.001, 2))
	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		return do(r, req).Code
	}
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimit_Disabled(t *testing.T) {
	r := engine(RateLimit(0, 0))
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func TestIPRateLimiter_Refills(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Now()
	l.now = func() time.Time { return now }
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	now = now.Add(1100 * time.Millisecond)
	assert.True(t, l.Allow("a"))
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := engine(RequestID(), Recovery())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	assert.Equal(t, "abc", do(r, req).Header().Get(RequestIDHeader))

	w := do(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"error":"Internal server error","reason":"internal_error"}`, w.Body.String())
}
