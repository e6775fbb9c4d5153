// Package util provides utility functions and types for the diff service.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., ParseError, TransformError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrParse         = errors.New("parse error")
	ErrTransform     = errors.New("invalid rule configuration")
	ErrCompute       = errors.New("compute error")
	ErrCancelled     = errors.New("cancelled")
	ErrConfigInvalid = errors.New("invalid configuration")
)

// ParseError represents malformed input supplied by the caller. Documents
// must already be valid JSON values when they reach the engine, so this
// error only surfaces at the service boundary.
type ParseError struct {
	Document string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("parse error in %s: %s", e.Document, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ParseError) Is(target error) bool {
	if target == ErrParse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok || errors.Is(e.Cause, target)
}

// NewParseError creates a new ParseError.
func NewParseError(document, message string) *ParseError {
	return &ParseError{Document: document, Message: message}
}

// NewParseErrorWithCause creates a new ParseError with a cause.
func NewParseErrorWithCause(document, message string, cause error) *ParseError {
	return &ParseError{Document: document, Message: message, Cause: cause}
}

// TransformError represents an invalid rule configuration: a bad regex
// pattern, out-of-range round decimals, or a custom transform expression
// that does not compile. Always recoverable; surfaced by the validation
// pass before computation, never mid-diff.
type TransformError struct {
	RuleID  string
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("rule %s invalid: %s", e.RuleID, e.Message)
	}
	return fmt.Sprintf("rule invalid: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *TransformError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *TransformError) Is(target error) bool {
	if target == ErrTransform {
		return true
	}
	_, ok := target.(*TransformError)
	return ok || errors.Is(e.Cause, target)
}

// NewTransformError creates a new TransformError.
func NewTransformError(ruleID, message string) *TransformError {
	return &TransformError{RuleID: ruleID, Message: message}
}

// NewTransformErrorWithCause creates a new TransformError with a cause.
func NewTransformErrorWithCause(ruleID, message string, cause error) *TransformError {
	return &TransformError{RuleID: ruleID, Message: message, Cause: cause}
}

// ComputeError represents an unexpected internal failure during diff
// computation. It surfaces as a job error status without affecting other
// jobs.
type ComputeError struct {
	Stage   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ComputeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compute error at %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("compute error at %s: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error.
func (e *ComputeError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ComputeError) Is(target error) bool {
	if target == ErrCompute {
		return true
	}
	_, ok := target.(*ComputeError)
	return ok || errors.Is(e.Cause, target)
}

// NewComputeError creates a new ComputeError.
func NewComputeError(stage, message string) *ComputeError {
	return &ComputeError{Stage: stage, Message: message}
}

// NewComputeErrorWithCause creates a new ComputeError with a cause.
func NewComputeErrorWithCause(stage, message string, cause error) *ComputeError {
	return &ComputeError{Stage: stage, Message: message, Cause: cause}
}

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsRecoverable returns true if the error represents invalid input or
// rule configuration the caller can correct, rather than an internal
// failure.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrTransform) ||
		errors.Is(err, ErrInvalidInput)
}
