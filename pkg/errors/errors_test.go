package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrForbidden,
		ErrInvalidTransition, ErrConflict, ErrInsufficientStock,
		ErrPaymentFailed, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "order not found"}
	assert.Equal(t, "NOT_FOUND: order not found", appErr.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("db down")}
	assert.Contains(t, wrapped.Error(), "db down")
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("order", "o-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("bad"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("no"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("no"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"invalid transition", InvalidTransition("already delivered"), "INVALID_TRANSITION", http.StatusBadRequest, ErrInvalidTransition},
		{"conflict", Conflict("retry"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"insufficient stock", InsufficientStock("p-1", 1, 3), "INSUFFICIENT_STOCK", http.StatusConflict, ErrInsufficientStock},
		{"payment failed", PaymentFailed("declined"), "PAYMENT_FAILED", http.StatusBadGateway, ErrPaymentFailed},
		{"unavailable", ServiceUnavailable("busy"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestNotFound_MessageNamesResource(t *testing.T) {
	err := NotFound("product", "abc-123")
	assert.Contains(t, err.Message, "product")
	assert.Contains(t, err.Message, "abc-123")
}

func TestInternal_HidesCause(t *testing.T) {
	err := Internal(fmt.Errorf("password=hunter2"))
	assert.NotContains(t, err.Message, "hunter2")
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Conflict("x"), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("ship: %w", InvalidTransition("x")), http.StatusBadRequest},
		{"bare not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"bare conflict", ErrConflict, http.StatusConflict},
		{"bare stock", ErrInsufficientStock, http.StatusConflict},
		{"bare transition", ErrInvalidTransition, http.StatusBadRequest},
		{"unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load product")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "load product: resource not found", err.Error())
}
