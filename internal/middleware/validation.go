package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
)

const (
	isoDateLayout    = "2006-01-02"
	maxJSONBodyBytes = 10 << 20
	maxFileNameLen   = 255
)

// fieldMessages renders validator tags as client-facing sentences. %[1]s is
// the JSON field name and %[2]s the tag parameter.
var fieldMessages = map[string]string{
	"required": "%[1]s is required",
	"min":      "%[1]s must be at least %[2]s",
	"max":      "%[1]s must be at most %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
	"gtefield": "%[1]s must not be before %[2]s",
	"isodate":  "%[1]s must be a date in YYYY-MM-DD format",
	"filename": "%[1]s must be a valid filename",
}

// ValidationMiddleware checks JSON bodies and validates decoded request
// structs against their `validate` tags.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware registers the custom isodate and filename tags
// and reports fields by their JSON names.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(isoDateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("filename", func(fl validator.FieldLevel) bool {
		return isSafeFileName(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       infrastructure.WithComponent(logger, "validation"),
		errorHandler: errorHandler,
		maxBodySize:  maxJSONBodyBytes,
	}
}

// isSafeFileName reports whether name can be used as a download or upload
// file name without escaping its directory.
func isSafeFileName(name string) bool {
	return name != "" && len(name) <= maxFileNameLen &&
		!strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// ValidateRequest rejects oversized or malformed JSON bodies before the
// handler runs. Other content types pass through untouched.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.ContentLength == 0 ||
			!strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, m.maxBodySize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				m.errorHandler.HandleError(w, r, apierrors.PayloadTooLarge(m.maxBodySize))
				return
			}
			m.logger.WarnContext(r.Context(), "failed to read request body", slog.String("error", err.Error()))
			m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		if len(body) > 0 && !json.Valid(body) {
			m.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusBadRequest,
				"INVALID_JSON",
				"Request body contains invalid JSON",
			))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// ValidateStruct returns nil or an APIError listing every rejected field.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apierrors.NewValidationErrors(out)
}

// DecodeAndValidate decodes a JSON body into v and validates it. An empty
// body leaves v untouched and is only checked against its tags.
func (m *ValidationMiddleware) DecodeAndValidate(r *http.Request, v interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return apierrors.InvalidRequestWithError(err)
		}
	}
	return m.ValidateStruct(v)
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "oneof" {
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	if format, ok := fieldMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// QueryParamValidator parses optional query parameters and answers the
// request with a validation problem when one is malformed. Every method
// returns false after it has written the error response.
type QueryParamValidator struct {
	errorHandler *apierrors.ErrorHandler
}

func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &QueryParamValidator{errorHandler: errorHandler}
}

// ValidateInt parses param within [min, max], defaulting when absent.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, true
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return v.reject(w, r, param, "%s must be a valid integer", param)
	case n < min || n > max:
		return v.reject(w, r, param, "%s must be between %d and %d", param, min, max)
	}
	return n, true
}

// ValidateDate parses an optional YYYY-MM-DD param. Absent yields the zero
// time.
func (v *QueryParamValidator) ValidateDate(w http.ResponseWriter, r *http.Request, param string) (time.Time, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(isoDateLayout, raw)
	if err != nil {
		_, ok := v.reject(w, r, param, fieldMessages["isodate"], param)
		return time.Time{}, ok
	}
	return t, true
}

func (v *QueryParamValidator) reject(w http.ResponseWriter, r *http.Request, param, format string, args ...any) (int, bool) {
	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf(format, args...)))
	return 0, false
}
