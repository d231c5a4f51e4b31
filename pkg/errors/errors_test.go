package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "lesson not found")
	assert.Equal(t, "lesson not found", err.Message)
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrValidation))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("outer: %w", Clone(ErrValidation, "bad score"))
	assert.Equal(t, ErrValidation.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}

func TestPersistenceWrapsCause(t *testing.T) {
	err := Persistence(sql.ErrConnDone, "")
	assert.Equal(t, ErrPersistence.Code, err.Code)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), ErrPersistence.Message)
}
