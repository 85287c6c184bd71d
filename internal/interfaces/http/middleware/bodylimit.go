package middleware

import (
	"errors"
	"net/http"

	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit rejects bodies larger than maxBytes. A declared Content-Length
// is refused up front; chunked bodies fail on read with *http.MaxBytesError,
// which IsBodyTooLarge recognizes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			AbortBodyTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from an oversized body
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// AbortBodyTooLarge writes the 413 envelope
func AbortBodyTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeBodyTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
}
