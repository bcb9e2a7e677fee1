package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("get term: %w", ErrTermNotFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(ErrTaxonomyNotFound, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrAlreadyExists))
}

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrInvalidInput.WithMessage("bad slug").WithCause(cause)

	assert.Equal(t, "bad slug: disk full", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid input", ErrInvalidInput.Message, "sentinel must stay untouched")
}
