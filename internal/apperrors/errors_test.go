package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("load guests: %w", Wrap(CodeStorageUnavailable, "read guests document", errors.New("dial tcp: timeout")))

	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeStorageUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeStorageUnavailable, http.StatusServiceUnavailable},
		{CodePartialFailure, http.StatusMultiStatus},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestValidationCarriesField(t *testing.T) {
	err := Validation("guestName", "guest name is required")
	assert.Equal(t, "guestName", err.Metadata["Field"])
	assert.True(t, errors.Is(err, ErrValidation))
}
