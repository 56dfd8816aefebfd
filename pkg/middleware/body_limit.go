package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pair-scheduler/pkg/models"
)

// BodyLimit caps the request body at maxBytes. A declared Content-Length over the
// cap is refused before any handler runs; chunked bodies are cut off by
// http.MaxBytesReader and reported by the handler that reads them.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
