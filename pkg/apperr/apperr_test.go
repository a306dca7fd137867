package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	base := Forbidden("access denied")
	wrapped := fmt.Errorf("handling request: %w", base)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindForbidden, e.Kind)
	assert.Equal(t, "access denied", e.Message)
}

func TestAsRejectsPlainErrors(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}

func TestIsKind(t *testing.T) {
	err := Validation(map[string]string{"slug": "slug already taken"})

	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(errors.New("boom"), KindValidation))
}

func TestValidationCarriesDetails(t *testing.T) {
	err := Validation(map[string]string{"timestamp": "invalid timestamp format"})

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "validation failed", e.Message)
	assert.Equal(t, "invalid timestamp format", e.Details["timestamp"])
	assert.Contains(t, err.Error(), "timestamp: invalid timestamp format")
}

func TestMessageOnlyError(t *testing.T) {
	assert.Equal(t, "user not found", NotFound("user not found").Error())
	assert.Equal(t, "email already registered", Conflict("email already registered").Error())
	assert.Equal(t, "invalid email or password", Auth("invalid email or password").Error())
}
