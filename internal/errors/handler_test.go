package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "no files",
			err:        ErrNoFiles,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "NO_FILES",
		},
		{
			name:       "nothing parsed",
			err:        fmt.Errorf("analyze: %w", ErrNothingParsed),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNothingParsed,
			wantCode:   "NOTHING_PARSED",
		},
		{
			name:       "parsing app error",
			err:        NewParsingError("unreadable workbook", fmt.Errorf("zip: not a valid zip file")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeParseFailed,
			wantCode:   "PARSING",
		},
		{
			name:       "duplicate app error",
			err:        NewDuplicateError("file already stored", nil),
			wantStatus: http.StatusConflict,
			wantType:   TypeDuplicateFile,
			wantCode:   "DUPLICATE",
		},
		{
			name:       "storage app error",
			err:        NewStorageError("insert failed", fmt.Errorf("disk I/O error")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeStorageFailed,
			wantCode:   "STORAGE",
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/sales-data", nil)
			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/sales-data", body["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			_, ok := logs.Find("request failed")
			assert.True(t, ok)
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	handler := NewErrorHandler(testutil.DiscardLogger(), false)
	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Empty(t, w.Body.String())
}

func TestErrorHandler_ServerErrorsLogAtErrorLevel(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodPost, "/api/upload", nil), ErrStorage)

	testutil.AssertLogged(t, logs, slog.LevelError, "request failed")
	body := decodeProblem(t, w)
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_AppErrorHidesInternalContext(t *testing.T) {
	handler := NewErrorHandler(testutil.DiscardLogger(), false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	internal := NewStorageError("insert failed", nil).WithContext("sql", "INSERT ...")
	problem := handler.ErrorToProblem(internal, r)
	assert.NotContains(t, problem.Extensions, "context")

	client := NewAppValidationError("file is empty").WithContext("file", "a.txt")
	problem = handler.ErrorToProblem(client, r)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, map[string]interface{}{"file": "a.txt"}, problem.Extensions["context"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/ws", nil), "boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "boom", body["panic"])
	testutil.AssertLogged(t, logs, slog.LevelError, "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(testutil.DiscardLogger(), false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "DELETE")
}
