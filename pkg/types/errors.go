package types

import (
	"errors"
	"fmt"
)

// ErrorKind represents different categories of errors
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindForbidden  ErrorKind = "forbidden"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindExternal   ErrorKind = "external"
	ErrorKindInternal   ErrorKind = "internal"
)

// PortalError represents a structured error in the portal
type PortalError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *PortalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *PortalError {
	return &PortalError{Kind: ErrorKindValidation, Code: code, Message: message}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(code, message string) *PortalError {
	return &PortalError{Kind: ErrorKindForbidden, Code: code, Message: message}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *PortalError {
	return &PortalError{Kind: ErrorKindNotFound, Code: code, Message: message}
}

// NewExternalError creates a new external-collaborator error
func NewExternalError(code, message string, cause error) *PortalError {
	return &PortalError{Kind: ErrorKindExternal, Code: code, Message: message, Cause: cause}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *PortalError {
	return &PortalError{Kind: ErrorKindInternal, Code: code, Message: message, Cause: cause}
}

// IsNotFound reports whether err is a not-found portal error
func IsNotFound(err error) bool {
	var pe *PortalError
	return errors.As(err, &pe) && pe.Kind == ErrorKindNotFound
}

// IsForbidden reports whether err is a forbidden portal error
func IsForbidden(err error) bool {
	var pe *PortalError
	return errors.As(err, &pe) && pe.Kind == ErrorKindForbidden
}

// IsValidation reports whether err is a validation portal error
func IsValidation(err error) bool {
	var pe *PortalError
	return errors.As(err, &pe) && pe.Kind == ErrorKindValidation
}

// Common error codes
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeAssistantFailed = "ASSISTANT_FAILED"
)
