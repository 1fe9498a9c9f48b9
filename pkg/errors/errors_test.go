package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrValidation, "subject is required"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "subject is required", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, ErrUpstream.Code, ErrUpstream.Status, "resource search failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "resource search failed: dial tcp: refused", err.Error())
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "document not found")
	assert.Equal(t, "document not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestIsMatchesClonesByCode(t *testing.T) {
	err := fmt.Errorf("load curriculum: %w", Clone(ErrNotFound, "curriculum cur-1 not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.True(t, IsAny(err, ErrValidation, ErrNotFound))
	assert.False(t, IsAny(errors.New("plain"), ErrNotFound))
	assert.ErrorIs(t, Wrap(errors.New("dial tcp"), ErrUpstream.Code, ErrUpstream.Status, "web search failed"), ErrUpstream)
}
