package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := NewStorageError("insert transactions", cause).WithContext("file", "march.txt")

	assert.Equal(t, "[STORAGE] insert transactions: database is locked", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "march.txt", err.Context["file"])

	typ, ok := TypeOf(fmt.Errorf("upload: %w", err))
	require.True(t, ok)
	assert.Equal(t, ErrTypeStorage, typ)

	_, ok = TypeOf(cause)
	assert.False(t, ok)

	assert.Equal(t, "[NOT_FOUND] file not found", NewNotFoundError("file").Error())
}

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "bad", []string{"x"})
	assert.Equal(t, "bad", err.Error())

	wrapped := fmt.Errorf("handler: %w", ErrNothingParsed)
	var apiErr *APIError
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()
	WriteProblem(w, NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge,
		"Request Entity Too Large", "too big", "/api/upload").WithExtension("error_code", CodePayloadTooLarge))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, ContentTypeProblem, w.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, CodePayloadTooLarge, body["error_code"])
	assert.Equal(t, "/api/upload", body["instance"])
}

func TestPayloadTooLarge(t *testing.T) {
	err := PayloadTooLarge(512)
	assert.Equal(t, http.StatusRequestEntityTooLarge, err.StatusCode)
	assert.Equal(t, map[string]int64{"max_bytes": 512}, err.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusConflict, TypeDuplicateFile, "Conflict", "already uploaded", "/api/upload").
		WithExtension("file_hash", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "abc", got["file_hash"])
	assert.Equal(t, float64(409), got["status"])
	assert.Equal(t, TypeDuplicateFile, got["type"])

	// Extensions never shadow the standard members.
	pd.WithExtension("status", "oops")
	data, err = json.Marshal(pd)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(409), got["status"])
}
