package errors

import (
	"fmt"
	"net/http"
)

// Error codes carried in the error_code member of every problem response.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNoFiles            = "NO_FILES"
	CodeNoData             = "NO_DATA"
	CodeNothingParsed      = "NOTHING_PARSED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeStorage            = "STORAGE_ERROR"
	CodeReportFailed       = "REPORT_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is an error that already knows its HTTP status. Handlers return
// it and ErrorHandler renders it as problem details.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload when several fields fail.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

var (
	ErrNoFiles            = New(http.StatusBadRequest, CodeNoFiles, "No files were uploaded")
	ErrNoData             = New(http.StatusNotFound, CodeNoData, "No sales data available")
	ErrNothingParsed      = New(http.StatusUnprocessableEntity, CodeNothingParsed, "None of the files contained parseable sales data")
	ErrStorage            = New(http.StatusInternalServerError, CodeStorage, "Storage error")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequestWithError reports a body or form that could not be read.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation rejects a single field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

// NewValidationErrors rejects several fields at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: errs})
}

// PayloadTooLarge reports a body over limit bytes.
func PayloadTooLarge(limit int64) *APIError {
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		"Request body exceeds the maximum allowed size", map[string]int64{"max_bytes": limit})
}

// StorageFailure hides the database error text behind the operation name;
// the cause is only logged.
func StorageFailure(operation string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeStorage,
		fmt.Sprintf("Storage error during %s", operation), err.Error())
}

func ReportFailure(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeReportFailed, "Report generation failed", err.Error())
}
