package errors

import "fmt"

// ErrorCode identifies a notistore error class.
type ErrorCode string

const (
	ErrServiceNotConnected ErrorCode = "SERVICE_NOT_CONNECTED" // 503
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"             // 404
	ErrStorageFailure      ErrorCode = "STORAGE_FAILURE"       // 500
	ErrCodecFailure        ErrorCode = "CODEC_FAILURE"         // 500, always recovered locally
	ErrConfigFailure       ErrorCode = "CONFIG_FAILURE"        // 500, falls back to defaults
	ErrInternal            ErrorCode = "INTERNAL"              // 500
)

// Error is a structured error with code, status, and optional details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewServiceNotConnected creates a 503 error for a detached listener service.
func NewServiceNotConnected() *Error {
	return &Error{
		Code:    ErrServiceNotConnected,
		Status:  503,
		Message: "notification listener service not connected",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record or file.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewStorageFailure wraps an underlying store I/O error.
func NewStorageFailure(err error) *Error {
	msg := "storage failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrStorageFailure,
		Status:  500,
		Message: msg,
	}
}

// NewCodecFailure wraps an icon encode failure. Callers degrade the
// affected field to null rather than surfacing this.
func NewCodecFailure(err error) *Error {
	msg := "icon codec failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrCodecFailure,
		Status:  500,
		Message: msg,
	}
}

// NewConfigFailure wraps a settings read/write failure.
func NewConfigFailure(err error) *Error {
	msg := "configuration failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrConfigFailure,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
