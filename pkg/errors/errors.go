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
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// Rule set errors
	ErrRuleCompile ErrorCode = "RULE_COMPILE"

	// Input load errors
	ErrTargetLoad ErrorCode = "TARGET_LOAD"
	ErrSourceLoad ErrorCode = "SOURCE_LOAD"
	ErrInputLoad  ErrorCode = "INPUT_LOAD"

	// Transform errors
	ErrTransformConstruct ErrorCode = "TRANSFORM_CONSTRUCT"
	ErrTransformInvalid   ErrorCode = "TRANSFORM_INVALID"

	// Secret store errors
	ErrSecretLookup ErrorCode = "SECRET_LOOKUP"
	ErrSecretStore  ErrorCode = "SECRET_STORE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
)

// MergeError represents a structured error with code and details
type MergeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *MergeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *MergeError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *MergeError) Is(target error) bool {
	var targetErr *MergeError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new MergeError with the given code and message
func New(code ErrorCode, message string) *MergeError {
	return &MergeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new MergeError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *MergeError {
	return &MergeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a MergeError
func Wrap(err error, code ErrorCode, message string) *MergeError {
	if err == nil {
		return nil
	}
	return &MergeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *MergeError {
	if err == nil {
		return nil
	}
	return &MergeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *MergeError) WithDetail(key string, value interface{}) *MergeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a MergeError
func GetErrorCode(err error) ErrorCode {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Code
	}
	return ErrUnknown
}
