package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ginLoggerKey = "logger"

// GinMiddleware writes one access log line per request. It also derives a
// request logger tagged with the request ID, method and path, and stores it
// on the gin context and the request context for handlers and repositories.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx, reqLog := WithRequestID(c.Request.Context(), base, c.GetString("request_id"))
		reqLog = reqLog.With(zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		c.Request = c.Request.WithContext(WithContext(ctx, reqLog))
		c.Set(ginLoggerKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		ce := reqLog.Check(accessLevel(status), "HTTP Request")
		if ce == nil {
			return
		}
		fields := append(make([]zap.Field, 0, 9),
			zap.Int("status", status),
			zap.String("route", c.FullPath()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("body_size", c.Writer.Size()),
		)
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if uid := c.GetString("user_id"); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		ce.Write(fields...)
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Recovery answers a panicking request with a 500 envelope and logs the
// stack. It runs before GinMiddleware, so it logs through base.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			base.Error("Panic recovered",
				zap.String("request_id", c.GetString("request_id")),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": "ERR_INTERNAL", "message": "Internal server error"},
			})
		}()
		c.Next()
	}
}

// GetGinLogger returns the request logger, or a no-op logger outside
// GinMiddleware
func GetGinLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Value(ginLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
