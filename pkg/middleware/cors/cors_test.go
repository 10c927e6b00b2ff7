package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsContext(t *testing.T, method, origin string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", nil)
	if origin != "" {
		c.Request.Header.Set("Origin", origin)
	}
	return c, w
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	c, w := corsContext(t, http.MethodGet, "https://portal.edunest.in/")

	New([]string{"https://portal.edunest.in"})(c)

	assert.Equal(t, "https://portal.edunest.in/", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	c, w := corsContext(t, http.MethodGet, "https://elsewhere.example")

	New([]string{"https://portal.edunest.in"})(c)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	c, w := corsContext(t, http.MethodOptions, "https://portal.edunest.in")

	New(nil)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
}
