package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
)

// New builds a CORS middleware for the configured origins. An empty list
// allows every origin, which is how local development and the staff portal
// preview run.
func New(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[normalize(origin)] = struct{}{}
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(allowed, origin) {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			headers.Set("Access-Control-Allow-Methods", allowMethods)
			headers.Set("Access-Control-Allow-Headers", allowHeaders)
			headers.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(allowed map[string]struct{}, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
