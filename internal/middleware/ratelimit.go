package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Counter increments a named counter that expires after window.
type Counter interface {
	Incr(ctx context.Context, name string, window time.Duration) (int64, error)
}

// RateLimit limits each client IP to maxRequests per window.
func RateLimit(counter Counter, maxRequests int, window time.Duration) gin.HandlerFunc {
	if counter == nil {
		panic("Counter cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	limit := strconv.Itoa(maxRequests)
	return func(c *gin.Context) {
		count, err := counter.Incr(c.Request.Context(), c.ClientIP(), window)
		if err != nil {
			logrus.WithError(err).Error("RateLimit: counter increment failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting error"})
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
