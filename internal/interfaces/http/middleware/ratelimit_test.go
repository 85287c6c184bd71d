package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bidhouse/backend/internal/infrastructure/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveFrom(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.Every(time.Minute, 2)
	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("allows the burst", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			w := serveFrom(router, http.MethodGet, "/products", "10.0.0.1:1234")
			assert.Equal(t, http.StatusOK, w.Code, "request %d should be allowed", i+1)
		}
	})

	t.Run("rejects past the burst with Retry-After", func(t *testing.T) {
		w := serveFrom(router, http.MethodGet, "/products", "10.0.0.1:1234")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("keys by client IP", func(t *testing.T) {
		w := serveFrom(router, http.MethodGet, "/products", "10.0.0.2:1234")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthRateLimit(t *testing.T) {
	limiter := ratelimit.Every(time.Minute, 3)
	router := gin.New()
	router.Use(AuthRateLimit(limiter))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	for i := 0; i < 3; i++ {
		w := serveFrom(router, http.MethodPost, "/login", "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := serveFrom(router, http.MethodPost, "/login", "192.168.1.100:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), AuthRateLimitCode)
	assert.Contains(t, w.Body.String(), "Too many authentication attempts")
}

func TestRateLimitByKey(t *testing.T) {
	limiter := ratelimit.Every(time.Hour, 1)
	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-API-Key")
	}, "QUOTA", "quota exhausted"))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-API-Key", key)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}
