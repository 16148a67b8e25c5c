// Package contract holds the request/response types and error shape shared
// by the HTTP surface, the CLI and the services beneath them.
package contract

import "fmt"

// ErrorCode classifies a service failure for transport mapping.
type ErrorCode string

const (
	CodeNotFound ErrorCode = "NOT_FOUND"
	CodeConflict ErrorCode = "CONFLICT"
	CodeInvalid  ErrorCode = "INVALID_ARGUMENT"
	CodeInternal ErrorCode = "INTERNAL"
)

// ServiceError is the typed error services return for expected failures.
// The HTTP layer maps Code to a status; Message is safe to show the user.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NotFound builds a NOT_FOUND service error.
func NotFound(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a CONFLICT service error.
func Conflict(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds an INVALID_ARGUMENT service error.
func Invalid(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeInvalid, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Err: err}
}
