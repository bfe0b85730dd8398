package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCancelled    ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Artifact errors
	ErrIncompleteArtifact ErrorCode = "INCOMPLETE_ARTIFACT"

	// Store errors
	ErrStoreWrite ErrorCode = "STORE_WRITE"
	ErrStoreRead  ErrorCode = "STORE_READ"

	// Release errors
	ErrUnknownRelease ErrorCode = "UNKNOWN_RELEASE"
	ErrNoPriorRelease ErrorCode = "NO_PRIOR_RELEASE"
	ErrPointerSwap    ErrorCode = "POINTER_SWAP"
	ErrPrune          ErrorCode = "PRUNE"
)

// ReleaseError represents a structured error with code and details
type ReleaseError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ReleaseError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ReleaseError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface. Two release errors match when
// their codes are equal.
func (e *ReleaseError) Is(target error) bool {
	var targetErr *ReleaseError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ReleaseError with the given code and message
func New(code ErrorCode, message string) *ReleaseError {
	return &ReleaseError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ReleaseError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ReleaseError {
	return &ReleaseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ReleaseError
func Wrap(err error, code ErrorCode, message string) *ReleaseError {
	if err == nil {
		return nil
	}
	return &ReleaseError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ReleaseError {
	if err == nil {
		return nil
	}
	return &ReleaseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ReleaseError) WithDetail(key string, value interface{}) *ReleaseError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ReleaseError) WithDetails(details map[string]interface{}) *ReleaseError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode reports whether any ReleaseError in err's chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &ReleaseError{Code: code})
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ReleaseError
func GetErrorCode(err error) ErrorCode {
	var relErr *ReleaseError
	if errors.As(err, &relErr) {
		return relErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ReleaseError
func GetErrorDetails(err error) map[string]interface{} {
	var relErr *ReleaseError
	if errors.As(err, &relErr) {
		return relErr.Details
	}
	return nil
}
