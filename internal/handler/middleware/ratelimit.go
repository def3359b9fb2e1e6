package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"recipehub/api/internal/config"
	"recipehub/api/pkg/response"
)

// RateLimit applies a process-wide token bucket.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			rateLimitRejects.Inc()
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(int(cfg.RPS)))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
		c.Next()
	}
}
