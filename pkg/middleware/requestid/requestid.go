package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request ID between clients and the API.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware tags each request with an ID. A caller-supplied X-Request-ID is
// kept so upstream systems can correlate their own traces; otherwise a fresh
// UUID is assigned. The ID is echoed back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Header(Header, id)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context, or "" outside the
// middleware chain.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
