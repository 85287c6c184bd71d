package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
	// MaxRequestIDLength caps client-supplied request IDs
	MaxRequestIDLength = 128
)

// RequestID tags the request with an ID, reusing the client's X-Request-ID
// when it is short and printable
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID set by RequestID, or the raw header truncated
// to MaxRequestIDLength when the middleware did not run
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

func validRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
