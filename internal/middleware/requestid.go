package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextRequestID is the gin context key the logging middlewares read the
// correlation id from.
const ContextRequestID = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation id and echoes it back in
// the response. An id supplied by the caller is kept so the same id can be
// traced across proxy hops.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
