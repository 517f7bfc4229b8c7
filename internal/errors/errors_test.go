package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "thing not found")
	assert.Equal(t, "thing not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("ein", "EIN is required")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ein", detail.Field)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrScoredDataNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "SCORED_DATA_NOT_FOUND", resp.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad input", "/api/organizations").
		WithExtension("error_code", "VALIDATION_FAILED")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "/errors/validation", out["type"])
	assert.Equal(t, float64(http.StatusBadRequest), out["status"])
	assert.Equal(t, "VALIDATION_FAILED", out["error_code"])
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"api error", ErrOrganizationNotFound, http.StatusNotFound},
		{"plain not found", fmt.Errorf("profile not found"), http.StatusNotFound},
		{"generic error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/organizations", nil)

			handler.HandleError(rec, req, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)

	handler.HandlePanic(rec, req, "unexpected state")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
