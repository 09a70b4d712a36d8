package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	cause := stderrors.New("entity missing")
	err := Wrap(ErrNotFound, cause)

	assert.Equal(t, http.StatusNotFound, err.Code)
	assert.Equal(t, "entity missing", err.Details)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "entity missing")
}

func TestGetStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Wrap(ErrUnprocessable, stderrors.New("bad mode")))

	assert.Equal(t, http.StatusUnprocessableEntity, GetStatusCode(wrapped))
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(stderrors.New("plain")))
	assert.False(t, IsAppError(stderrors.New("plain")))
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrBadRequest, "temperature must be a number")

	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.Equal(t, "temperature must be a number", err.Details)
	assert.Equal(t, "code=400, message=Bad request", err.Error())
}
