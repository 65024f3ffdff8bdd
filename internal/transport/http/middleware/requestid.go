package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/taskapi/internal/reqctx"
)

const headerRequestID = "X-Request-ID"

// RequestID injects a request ID into the context and response header.
// An incoming X-Request-ID is preserved; otherwise a new UUID v4 is used.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = reqctx.NewRequestID()
		}

		c.Request = c.Request.WithContext(reqctx.WithRequestID(c.Request.Context(), id))
		c.Header(headerRequestID, id)
		c.Next()
	}
}
