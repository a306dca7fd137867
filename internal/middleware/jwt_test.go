package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecloud/backend/internal/auth"
)

func TestJWTMiddlewareSetsVerifiedIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := auth.NewJWTService("test-secret", 1)
	userID := uuid.New()
	token, err := svc.Generate(userID, "u@example.com")
	require.NoError(t, err)

	var gotID uuid.UUID
	var gotEmail string
	r := gin.New()
	r.GET("/protected", JWT(svc), func(c *gin.Context) {
		gotID = c.MustGet(ContextUserID).(uuid.UUID)
		gotEmail = c.MustGet(ContextUserEmail).(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "u@example.com", gotEmail)
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := auth.NewJWTService("test-secret", 1)

	r := gin.New()
	r.GET("/protected", JWT(svc), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
