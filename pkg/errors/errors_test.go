package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrConflict, "Class name already exists!"))
	err := FromError(wrapped)
	assert.Equal(t, ErrConflict.Code, err.Code)
	assert.Equal(t, "Class name already exists!", err.Message)
}

func TestClonedErrorsMatchSentinel(t *testing.T) {
	err := Clone(ErrNotFound, "class not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrPlacementFailed, map[string]string{"studentId": "s1"})
	assert.Equal(t, ErrPlacementFailed.Code, err.Code)
	assert.Nil(t, ErrPlacementFailed.Details)
	assert.Equal(t, map[string]string{"studentId": "s1"}, err.Details)
}
