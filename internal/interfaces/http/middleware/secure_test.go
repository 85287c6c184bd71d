package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSecure_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Secure())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.NotEmpty(t, w.Header().Get("Permissions-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecure_HSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultSecurityConfig()
	cfg.HSTSMaxAge = 24 * time.Hour
	r := gin.New()
	r.Use(SecureWithConfig(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "max-age=86400; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("sets a deadline", func(t *testing.T) {
		r := gin.New()
		r.Use(Timeout(time.Second))
		var deadline bool
		r.GET("/", func(c *gin.Context) {
			_, deadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, deadline)
	})

	t.Run("expired context reaches handler", func(t *testing.T) {
		r := gin.New()
		r.Use(Timeout(time.Millisecond))
		var err error
		r.GET("/", func(c *gin.Context) {
			<-c.Request.Context().Done()
			err = c.Request.Context().Err()
			c.Status(http.StatusGatewayTimeout)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("zero disables", func(t *testing.T) {
		r := gin.New()
		r.Use(Timeout(0))
		var deadline bool
		r.GET("/", func(c *gin.Context) {
			_, deadline = c.Request.Context().Deadline()
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, deadline)
	})
}
