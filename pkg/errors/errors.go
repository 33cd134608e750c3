package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common error types
var (
	// Session errors
	ErrNoConnection     = errors.New("no router connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrConnectionFailed = errors.New("failed to connect to router")
	ErrSessionNotFound  = errors.New("session not found")

	// Backend errors
	ErrBackendRejected = errors.New("backend rejected the request")
	ErrBackendDown     = errors.New("backend unreachable")
	ErrEmptyResponse   = errors.New("empty response from backend")

	// Validation errors
	ErrValidation = errors.New("validation failed")

	// Query errors
	ErrQueryDisabled = errors.New("query disabled")
	ErrQueryUnknown  = errors.New("query not registered")

	// Router inventory errors
	ErrRouterNotFound = errors.New("router not found")

	// Export errors
	ErrNothingToExport = errors.New("nothing to export")
	ErrExportFormat    = errors.New("unsupported export format")
)

// APIError represents a failed backend call: a non-2xx status or a
// 2xx envelope carrying success=false.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return ErrBackendRejected
}

// NetworkError represents a transport-level failure talking to the backend
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBackendDown) match any transport failure.
func (e *NetworkError) Is(target error) bool {
	return target == ErrBackendDown
}

// ValidationError holds field-level problems found before a request is sent.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Field returns the message for one field, or "" when the field is valid.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// UserMessage returns the text shown to the operator for err: server
// messages verbatim, validation messages joined, everything else as is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Network error occurred. Please check your connection and try again."
	}
	if errors.Is(err, ErrNoConnection) {
		return "No router connected"
	}
	return err.Error()
}
