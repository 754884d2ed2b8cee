package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_WrapSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{
			name:     "missing column",
			err:      NewMissingColumn("aggregate", "cole_cod_dane_establecimiento"),
			sentinel: ErrMissingColumn,
			contains: "cole_cod_dane_establecimiento",
		},
		{
			name:     "insufficient sample",
			err:      NewInsufficientSample("fit_residuals", 42, 100),
			sentinel: ErrInsufficientSample,
			contains: "42 observations, floor is 100",
		},
		{
			name:     "degenerate variance",
			err:      NewDegenerateVariance("normalize", "punt_global"),
			sentinel: ErrDegenerateVariance,
			contains: "punt_global",
		},
		{
			name:     "encoding mismatch",
			err:      NewEncodingMismatch("predict", "unseen value \"7\" for feature fami_estratovivienda"),
			sentinel: ErrEncodingMismatch,
			contains: "fami_estratovivienda",
		},
		{
			name:     "malformed input",
			err:      NewMalformedInput("canonicalize", "no identifier column resolved"),
			sentinel: ErrMalformedInput,
			contains: "no identifier column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestConstructors_WrapThroughFmtErrorf(t *testing.T) {
	// Pipeline stages add context with %w; classification must survive it.
	inner := NewInsufficientSample("fit_residuals", 10, 100)
	wrapped := fmt.Errorf("subject punt_global: %w", inner)

	assert.True(t, errors.Is(wrapped, ErrInsufficientSample))

	var ae *AnalyticsError
	require.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, TypeInsufficientSampleErr, ae.Type)
	assert.Equal(t, "fit_residuals", ae.Op)
}

func TestAnalyticsError_Error(t *testing.T) {
	withMessage := &AnalyticsError{Op: "normalize", Message: "boom", Err: ErrDegenerateVariance}
	assert.Equal(t, "normalize: boom", withMessage.Error())

	withoutMessage := &AnalyticsError{Op: "normalize", Err: ErrDegenerateVariance}
	assert.Equal(t, "normalize: degenerate variance", withoutMessage.Error())
}

func testHandler(t *testing.T) *ErrorHandler {
	t.Helper()
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorToProblem_StatusMapping(t *testing.T) {
	h := testHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/api/residuals", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "missing column is unprocessable",
			err:        NewMissingColumn("aggregate", "year"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMissingColumn,
		},
		{
			name:       "insufficient sample is unprocessable",
			err:        NewInsufficientSample("fit_residuals", 1, 100),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInsufficientSample,
		},
		{
			name:       "degenerate variance is unprocessable",
			err:        NewDegenerateVariance("normalize", "punt_ingles"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDegenerateVariance,
		},
		{
			name:       "encoding mismatch is unprocessable",
			err:        NewEncodingMismatch("predict", "unseen category"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEncodingMismatch,
		},
		{
			name:       "malformed input is a bad request",
			err:        NewMalformedInput("canonicalize", "no identifier column resolved"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeMalformedInput,
		},
		{
			name:       "not computed is not found",
			err:        ErrNotComputed,
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotComputed,
		},
		{
			name:       "deadline exceeded is a gateway timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown errors stay internal",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/residuals", problem.Instance)
		})
	}
}

func TestErrorToProblem_InternalHidesDetail(t *testing.T) {
	h := testHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)

	problem := h.ErrorToProblem(errors.New("pq: connection refused"), r)
	assert.NotContains(t, problem.Detail, "connection refused")
}

func TestHandleError_WritesProblemJSON(t *testing.T) {
	h := testHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/api/normalized", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, NewDegenerateVariance("normalize", "punt_ingles"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeDegenerateVariance, body["type"])
	assert.Equal(t, "Degenerate Variance", body["title"])
	assert.Contains(t, body, "trace_id")
}

func TestProblemDetails_MarshalFlattensExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/api/rankings").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "abc-123", body["trace_id"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := testHandler(t)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/aggregates", nil)
	RecoveryMiddleware(h)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeInternal, body["type"])
}
