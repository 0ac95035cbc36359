package errors

import (
	"database/sql"
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "enrollment not found")

	assert.Equal(t, "enrollment not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrConflict))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(sql.ErrConnDone)

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.True(t, stdErrors.Is(err, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}

func TestCodeOf(t *testing.T) {
	wrapped := Wrap(sql.ErrNoRows, ErrConflict.Code, ErrConflict.Status, "stale state")

	assert.Equal(t, "CONFLICT", CodeOf(wrapped))
	assert.Equal(t, "INTERNAL_ERROR", CodeOf(stdErrors.New("boom")))
	assert.Equal(t, "", CodeOf(nil))
}
