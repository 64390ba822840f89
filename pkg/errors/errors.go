package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeAttempt represents a failed extraction attempt (including recovered panics)
	ErrorTypeAttempt ErrorType = "attempt"
	// ErrorTypeUnsupported represents a page no strategy can handle
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeStorage represents persistence failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeAnalysis represents language-model service errors
	ErrorTypeAnalysis ErrorType = "analysis"
	// ErrorTypeTransport represents messaging errors
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ListingError is the error type shared by every component
type ListingError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ListingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *ListingError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the next poll or request may succeed
func (e *ListingError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeAttempt, ErrorTypeStorage, ErrorTypeTransport:
		return true
	default:
		return false
	}
}

// New creates a new ListingError
func New(errType ErrorType, source, message string, err error) *ListingError {
	return &ListingError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewAttempt creates a new extraction attempt error
func NewAttempt(source, message string, err error) *ListingError {
	return New(ErrorTypeAttempt, source, message, err)
}

// NewUnsupported creates an unsupported page error
func NewUnsupported(pageURL string) *ListingError {
	return New(ErrorTypeUnsupported, pageURL, "not a supported listing page", nil)
}

// NewStorage creates a new storage error
func NewStorage(source, message string, err error) *ListingError {
	return New(ErrorTypeStorage, source, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *ListingError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *ListingError {
	return New(ErrorTypeRateLimit, source, fmt.Sprintf("rate limited for %v", duration), nil)
}

// NewAnalysis creates a new analysis error
func NewAnalysis(source, message string, err error) *ListingError {
	return New(ErrorTypeAnalysis, source, message, err)
}

// NewTransport creates a new transport error
func NewTransport(source, message string, err error) *ListingError {
	return New(ErrorTypeTransport, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *ListingError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ListingError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether err carries a ListingError of the given type
func IsType(err error, errType ErrorType) bool {
	var le *ListingError
	if errors.As(err, &le) {
		return le.Type == errType
	}
	return false
}
