package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an ID, honoring one supplied
// by an upstream proxy. The ID is echoed back in the response header and
// embedded in the envelope metadata.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
