package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a generation failure
type ErrorKind string

const (
	KindRateLimit     ErrorKind = "rate_limit"
	KindTimeout       ErrorKind = "timeout"
	KindProviderError ErrorKind = "provider_error"

	// KindUnexpected is reported for errors that carry no classification
	KindUnexpected ErrorKind = "unexpected_error"
)

// GenerationError is the tagged error every Generator returns on failure
type GenerationError struct {
	Kind       ErrorKind
	Provider   string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// NewRateLimitError reports that provider refused the call for quota reasons
func NewRateLimitError(provider, message string, statusCode int, cause error) *GenerationError {
	return &GenerationError{Kind: KindRateLimit, Provider: provider, Message: message, StatusCode: statusCode, Cause: cause}
}

// NewTimeoutError reports that provider did not answer in time
func NewTimeoutError(provider, message string, cause error) *GenerationError {
	return &GenerationError{Kind: KindTimeout, Provider: provider, Message: message, Cause: cause}
}

// NewProviderError reports any other provider-side failure
func NewProviderError(provider, message string, statusCode int, cause error) *GenerationError {
	return &GenerationError{Kind: KindProviderError, Provider: provider, Message: message, StatusCode: statusCode, Cause: cause}
}

// KindOf classifies err. A *GenerationError anywhere in the chain wins;
// otherwise a context deadline counts as a timeout and anything else is
// unexpected.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnexpected
}

// ClassifyStatus maps a non-2xx HTTP status from a provider API to a tagged error
func ClassifyStatus(provider string, statusCode int, message string) *GenerationError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	msg := fmt.Sprintf("%s error (status %d): %s", provider, statusCode, message)

	switch statusCode {
	case http.StatusTooManyRequests:
		return NewRateLimitError(provider, msg, statusCode, nil)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &GenerationError{Kind: KindTimeout, Provider: provider, Message: msg, StatusCode: statusCode}
	default:
		return NewProviderError(provider, msg, statusCode, nil)
	}
}

// ClassifyTransport maps an error from the HTTP client to a tagged error
func ClassifyTransport(ctx context.Context, provider string, err error) *GenerationError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(provider, provider+" request timed out", err)
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return NewTimeoutError(provider, provider+" request timed out", err)
	}
	return NewProviderError(provider, provider+" request failed", 0, err)
}
