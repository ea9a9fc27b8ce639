package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", Validation("BAD_INPUT", "bad input"), http.StatusBadRequest},
		{"unauthorized", ErrMissingAccessToken, http.StatusUnauthorized},
		{"forbidden", ErrPermissionDenied, http.StatusForbidden},
		{"not found", ErrOrderNotFound, http.StatusNotFound},
		{"conflict", ErrRoleAlreadyExists, http.StatusConflict},
		{"domain invariant", ErrOutOfStock, http.StatusUnprocessableEntity},
		{"wrapped", fmt.Errorf("handler: %w", ErrCannotCancelOrder), http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "OUT_OF_STOCK_SKU", Code(ErrOutOfStock))
	assert.Equal(t, "OUT_OF_STOCK_SKU", Code(fmt.Errorf("create order: %w", ErrOutOfStock)))
	assert.Equal(t, "INTERNAL", Code(errors.New("database exploded")))
}

func TestUnwrap(t *testing.T) {
	assert.ErrorIs(t, ErrRefreshTokenAlreadyUsed, ErrUnauthorized)
	assert.ErrorIs(t, ErrSKUNotBelongToShop, ErrDomainInvariant)
	assert.NotErrorIs(t, ErrSKUNotBelongToShop, ErrNotFound)

	var appErr *AppError
	assert.True(t, errors.As(fmt.Errorf("x: %w", ErrNotFoundSKU), &appErr))
	assert.Equal(t, "NOT_FOUND_SKU", appErr.Code)
}
