package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/common"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{visitors: make(map[string]*visitor), rps: rate.Limit(rps), burst: burst, now: time.Now}
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	allowed := v.limiter.AllowN(now, 1)

	// sweep idle visitors opportunistically
	if len(l.visitors) > 1024 {
		for k, vv := range l.visitors {
			if now.Sub(vv.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
	}
	return allowed
}

// RateLimit rejects requests over the per-IP budget with 429. A non-positive
// rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := NewIPRateLimiter(rps, burst)
	retryAfter := strconv.Itoa(int(1/rps) + 1)
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			common.Fail(c, http.StatusTooManyRequests, common.ReasonRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
