// Package middleware provides the gin middleware of the marketplace API.
package middleware

import (
	"errors"
	"net/http"

	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig switches the otelgin server spans
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig starts one server span per request, named
// "METHOD route" (e.g. "GET /api/v1/products/:id")
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanDecorator annotates the request span once the handler chain has run,
// so identities set by route-level JWT middleware are visible. Route
// parameters become bidhouse.param.<name> attributes, 4xx/5xx responses mark
// the span as failed, and the domain error code attached by handlers is
// recorded as error.code. Place it directly after TracingWithConfig.
func SpanDecorator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		attrs := make([]attribute.KeyValue, 0, 4+len(c.Params))
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, attribute.String("request_id", id))
		}
		if userID := GetJWTUserID(c); userID != "" {
			attrs = append(attrs, attribute.String("user_id", userID), attribute.String("user_role", GetJWTRole(c)))
		}
		for _, p := range c.Params {
			attrs = append(attrs, attribute.String("bidhouse.param."+p.Key, p.Value))
		}

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			attrs = append(attrs, attribute.Int("http.status_code", status))
			if code := lastDomainCode(c); code != "" {
				attrs = append(attrs, attribute.String("error.code", code))
			}
		}
		span.SetAttributes(attrs...)
	}
}

func lastDomainCode(c *gin.Context) string {
	last := c.Errors.Last()
	if last == nil {
		return ""
	}
	var domainErr *shared.DomainError
	if errors.As(last.Err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
