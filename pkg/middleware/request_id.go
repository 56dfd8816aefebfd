package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the gin context key holding the request id
	RequestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
	requestIDMaxLen = 64
)

// RequestID reuses a caller's X-Request-ID when it is a short printable token
// and mints a UUID otherwise
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !usableRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(RequestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func usableRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		// visible ASCII only; ids end up in log lines
		if rid[i] <= ' ' || rid[i] > '~' {
			return false
		}
	}
	return true
}
