package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeCapacityExhausted ErrorType = "capacity_exhausted"
	ErrorTypeAllModelsFailed   ErrorType = "all_models_failed"
	ErrorTypeInternal          ErrorType = "internal"
	ErrorTypeExternal          ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. They are templates for errors.Is matching; use the
// constructors below to build errors that carry request-specific details.

var (
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyPrompt  = NewDomainError(ErrorTypeValidation, "prompt cannot be empty", nil)

	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)

	ErrCapacityExhausted = NewDomainError(ErrorTypeCapacityExhausted, "no models available - all are on cooldown", nil)
	ErrAllModelsFailed   = NewDomainError(ErrorTypeAllModelsFailed, "all models failed", nil)

	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// NewCapacityExhaustedError reports that no candidate model could be selected for an intent
func NewCapacityExhaustedError(intent string) *DomainError {
	return NewDomainError(ErrorTypeCapacityExhausted, ErrCapacityExhausted.Message, nil).
		WithDetail("intent", intent)
}

// NewAllModelsFailedError reports that every attempt in a fallback chain failed
func NewAllModelsFailedError(triedModels []string, lastErr error) *DomainError {
	lastError := ""
	if lastErr != nil {
		lastError = lastErr.Error()
	}
	tried := make([]string, len(triedModels))
	copy(tried, triedModels)
	return NewDomainError(ErrorTypeAllModelsFailed, ErrAllModelsFailed.Message, lastErr).
		WithDetail("tried_models", tried).
		WithDetail("last_error", lastError)
}

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return hasType(err, ErrorTypeUnauthorized)
}

// IsCapacityExhaustedError checks if an error signals that no model was available
func IsCapacityExhaustedError(err error) bool {
	return hasType(err, ErrorTypeCapacityExhausted)
}

// IsAllModelsFailedError checks if an error signals an exhausted fallback chain
func IsAllModelsFailedError(err error) bool {
	return hasType(err, ErrorTypeAllModelsFailed)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return hasType(err, ErrorTypeInternal)
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return hasType(err, ErrorTypeExternal)
}

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
