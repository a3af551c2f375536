package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeCollectorError = "COLLECTOR_ERROR"
	CodeAPIError       = "API_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeStorage        = "STORAGE_ERROR"
)

type CollectorError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *CollectorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CollectorError) Unwrap() error {
	return e.Cause
}

func NewCollectorError(message, code string, statusCode int, context map[string]any) *CollectorError {
	return &CollectorError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *CollectorError) WithCause(cause error) *CollectorError {
	e.Cause = cause
	return e
}

// APIError is a non-2xx answer (or a transport failure) from the Rutube API.
type APIError struct {
	*CollectorError
	URL string
}

func NewAPIError(message string, statusCode int, url string, context map[string]any) *APIError {
	if context == nil {
		context = map[string]any{}
	}
	context["url"] = url

	return &APIError{
		CollectorError: &CollectorError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
		URL: url,
	}
}

func (e *APIError) WithCause(cause error) *APIError {
	e.Cause = cause
	return e
}

type ValidationError struct {
	*CollectorError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		CollectorError: &CollectorError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// StorageError covers the database, export and cache sinks.
type StorageError struct {
	*CollectorError
	Backend   string
	Operation string
}

func NewStorageError(message, backend, operation string, cause error) *StorageError {
	return &StorageError{
		CollectorError: &CollectorError{
			Message:    message,
			Code:       CodeStorage,
			StatusCode: 500,
			Context: map[string]any{
				"backend":   backend,
				"operation": operation,
			},
			Cause: cause,
		},
		Backend:   backend,
		Operation: operation,
	}
}

// StatusCode returns the HTTP status carried by an APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
