package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origin until one is configured
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "Accept", "Origin"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSWithConfig answers preflights with 204 and sets CORS headers only for
// allowed origins. "*" allows any origin but never with credentials.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		origins[o] = struct{}{}
	}

	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	allowed := func(origin string) string {
		if wildcard {
			return "*"
		}
		if _, ok := origins[origin]; ok {
			return origin
		}
		return ""
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()

		if value := allowed(origin); value != "" && (origin != "" || wildcard) {
			h.Set("Access-Control-Allow-Origin", value)
			if value != "*" {
				h.Add("Vary", "Origin")
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			if exposeHeaders != "" {
				h.Set("Access-Control-Expose-Headers", exposeHeaders)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
		}

		// preflights never reach the router, allowed or not
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
