package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAssignsUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Middleware()(c)

	id := w.Header().Get(Header)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, Value(c))
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set(Header, "trace-77")

	Middleware()(c)

	assert.Equal(t, "trace-77", Value(c))
	assert.Equal(t, "trace-77", w.Header().Get(Header))
}
