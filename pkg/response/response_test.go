package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecloud/backend/pkg/apperr"
)

func record(t *testing.T, err error) (*httptest.ResponseRecorder, Body) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, err)

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"auth", apperr.Auth("invalid email or password"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("organization not found or access denied"), http.StatusForbidden},
		{"validation", apperr.Validation(map[string]string{"slug": "slug already taken"}), http.StatusBadRequest},
		{"not found", apperr.NotFound("user not found"), http.StatusNotFound},
		{"conflict", apperr.Conflict("email already registered"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := record(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestErrorIncludesValidationDetails(t *testing.T) {
	_, body := record(t, apperr.Validation(map[string]string{"key": "key already in use in this organization"}))
	assert.Equal(t, "key already in use in this organization", body.Details["key"])
}

func TestErrorHidesInternalFailures(t *testing.T) {
	w, body := record(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, body.Error, "connection refused")
}
