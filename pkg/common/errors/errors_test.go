package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid input", fmt.Errorf("%w: bad filter", ErrInvalidInput), http.StatusBadRequest},
		{"not found", fmt.Errorf("cafe 9: %w", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("%w: do not disturb", ErrForbidden), http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"unavailable", fmt.Errorf("%w: places", ErrUnavailable), http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"app error", NewAppError(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	assert.Nil(t, MapError(nil))
}

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError(http.StatusBadRequest, "Missing cafe ID", ErrInvalidInput)
	assert.Equal(t, "Missing cafe ID: invalid input", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)

	bare := NewAppError(http.StatusNotFound, "gone", nil)
	assert.Equal(t, "gone", bare.Error())
}
