package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The middleware stores the verified id under "user_id"; the handlers read
// the same key without importing the middleware package.
func TestMeReadsIdentityFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, users, _ := newTestService()
	user, err := users.Create(context.Background(), "u@example.com", "hash", nil)
	require.NoError(t, err)

	h := NewHandler(svc, nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set("user_id", user.ID)

	h.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.String())
}
