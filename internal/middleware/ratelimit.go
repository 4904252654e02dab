package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Limiter counts hits for a key and reports whether the key is still allowed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit returns a Gin middleware that limits requests per client IP.
// When the limiter itself fails the request is let through.
func RateLimit(limiter Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	if limiter == nil {
		panic("Limiter cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		// Keyed by client IP; gin honours X-Forwarded-For only from trusted proxies.
		key := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key, maxRequests, window)
		if err != nil {
			// Fail open on limiter errors.
			logrus.WithError(err).WithField("client_ip", key).Error("RateLimit: limiter failed, allowing request")
			c.Next()
			return
		}
		if !allowed {
			// Same JSON shape as handler error responses.
			logrus.WithField("client_ip", key).Warn("RateLimit: too many requests")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next()
	}
}
