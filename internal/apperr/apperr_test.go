package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{InvalidInput("bad"), http.StatusBadRequest},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status(), string(tt.err.Kind))
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	assert.Equal(t, "internal server error", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("dup"))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindConflict))
}
