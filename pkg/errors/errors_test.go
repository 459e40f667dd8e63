package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("calling gemini: %w", ErrAIUnavailable)

	typed := FromError(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, ErrAIUnavailable.Code, typed.Code)
	assert.Equal(t, http.StatusServiceUnavailable, typed.Status)
}

func TestFromErrorNormalizesUnknownErrors(t *testing.T) {
	typed := FromError(fmt.Errorf("driver: bad connection"))
	require.NotNil(t, typed)
	assert.Equal(t, ErrInternal.Code, typed.Code)
	assert.Equal(t, http.StatusInternalServerError, typed.Status)
	assert.Equal(t, ErrInternal.Message, typed.Message)
}

func TestFromErrorNil(t *testing.T) {
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrNotFound, "student not found")
	assert.Equal(t, "student not found", clone.Message)
	assert.Equal(t, ErrNotFound.Code, clone.Code)
	assert.Equal(t, ErrNotFound.Status, clone.Status)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestWrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("row scan failed")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to load student")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load student")
	assert.Contains(t, err.Error(), "row scan failed")
}
