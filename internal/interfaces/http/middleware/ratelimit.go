package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Limiter is a per-key token bucket; ratelimit.KeyedLimiter satisfies it
type Limiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
}

// AuthRateLimitCode is returned when the /auth limiter trips
const AuthRateLimitCode = "AUTH_RATE_LIMITED"

// RateLimit limits requests per client IP
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() },
		dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
}

// AuthRateLimit is the stricter per-IP limit applied to credential and OTP
// endpoints
func AuthRateLimit(limiter Limiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		AuthRateLimitCode, "Too many authentication attempts. Please try again later.")
}

// RateLimitByKey returns a rate limiting middleware with a custom key extractor
func RateLimitByKey(limiter Limiter, keyFunc func(*gin.Context) string, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if limiter.Allow(key) {
			c.Next()
			return
		}

		if wait := limiter.RetryAfter(key); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
	}
}
