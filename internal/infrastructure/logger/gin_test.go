package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func findEntry(logs *observer.ObservedLogs, msg string) *observer.LoggedEntry {
	for _, e := range logs.All() {
		if e.Message == msg {
			entry := e
			return &entry
		}
	}
	return nil
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/products/:id", func(c *gin.Context) {
		c.Set("user_id", "u-1")
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/1?steps=3", nil)
	router.ServeHTTP(w, req)

	entry := findEntry(logs, "HTTP Request")
	require.NotNil(t, entry)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "steps=3", fields["query"])
	assert.Equal(t, "/products/:id", fields["route"])
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	entry := findEntry(logs, "Panic recovered")
	require.NotNil(t, entry)
	assert.Equal(t, "kaboom", entry.ContextMap()["panic"])
}

func TestGinMiddleware_SkipsBelowLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) {
		assert.NotNil(t, GetGinLogger(c))
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Zero(t, logs.Len())
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	fc := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(t.Context(), time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are not logged at warn")

	gl.Trace(t.Context(), time.Now().Add(-time.Second), fc, nil)
	assert.NotNil(t, findEntry(logs, "Slow SQL"))

	gl.Trace(t.Context(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Nil(t, findEntry(logs, "SQL error"))

	gl.Trace(t.Context(), time.Now(), fc, errors.New("connection reset"))
	assert.NotNil(t, findEntry(logs, "SQL error"))
}

func TestGormLogger_UsesRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)
	gl := NewGormLogger(base, gormlogger.Error)
	ctx, _ := WithRequestID(t.Context(), base, "req-sql")

	gl.Trace(ctx, time.Now(), func() (string, int64) { return "UPDATE products", 0 }, errors.New("deadlock"))

	entry := findEntry(logs, "SQL error")
	require.NotNil(t, entry)
	assert.Equal(t, "gorm", entry.LoggerName)
	assert.Equal(t, "req-sql", entry.ContextMap()["request_id"])
	assert.Equal(t, "UPDATE products", entry.ContextMap()["sql"])
}
