package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
	"github.com/storefront-labs/orderengine/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteData_SetsSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]string{"id": "o-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/order/o-1", nil)

	WriteError(rec, req, apperrors.NotFound("order", "o-1"), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "o-1")
}

func TestWriteError_WrappedInvalidTransition(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/order/o-1", nil)

	err := fmt.Errorf("update status: %w", apperrors.InvalidTransition("you have already delivered this order"))
	WriteError(rec, req, err, testLogger())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
	assert.Equal(t, "you have already delivered this order", resp.Error.Message)
}

func TestWriteError_BareSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("x: %w", apperrors.ErrConflict), http.StatusConflict, "CONFLICT"},
		{apperrors.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		WriteError(rec, req, tt.err, testLogger())

		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.code, decode(t, rec).Error.Code)
	}
}

func TestWriteError_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := logger.WithCorrelationID(req.Context(), "corr-1")

	WriteError(rec, req.WithContext(ctx), fmt.Errorf("pq: relation does not exist"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "relation")
	assert.Equal(t, "corr-1", resp.Error.RequestID)
}

type reviewBody struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4}`))
		var body reviewBody
		assert.True(t, DecodeAndValidate(rec, req, &body))
		assert.Equal(t, 4, body.Rating)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var body reviewBody
		assert.False(t, DecodeAndValidate(rec, req, &body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_INPUT", decode(t, rec).Error.Code)
	})

	t.Run("out of range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":9}`))
		var body reviewBody
		assert.False(t, DecodeAndValidate(rec, req, &body))
		resp := decode(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Contains(t, resp.Error.Fields, "rating")
	})
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := ParseUUID(rec, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	id, ok := ParseUUID(rec, "0b8f2c9e-3f51-4f0e-9d43-5b7d9a2b1c11")
	assert.True(t, ok)
	assert.Equal(t, "0b8f2c9e-3f51-4f0e-9d43-5b7d9a2b1c11", id.String())
}

func TestWriteError_UsesRequestLogger(t *testing.T) {
	var sb strings.Builder
	l := slog.New(slog.NewJSONHandler(&sb, nil))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(logger.NewContext(context.Background(), l))

	WriteError(httptest.NewRecorder(), req, fmt.Errorf("boom"), testLogger())
	assert.Contains(t, sb.String(), "request failed")
}
