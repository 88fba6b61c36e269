// Package errors defines the SDK's typed error taxonomy and the classifier
// that maps raw HTTP outcomes onto it. Callers always receive a *AppError
// from the closed set of types below, never a raw transport error.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeAuthentication represents bad, expired or insufficient credentials
	ErrTypeAuthentication ErrorType = "authentication"
	// ErrTypeValidation represents malformed or rejected input
	ErrTypeValidation ErrorType = "validation"
	// ErrTypePayment represents a declined or failed payment
	ErrTypePayment ErrorType = "payment"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeRateLimit represents rate limit errors
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeNetwork represents failures with no HTTP response at all,
	// including timeouts
	ErrTypeNetwork ErrorType = "network"
	// ErrTypeAPI is the fallback for any other gateway response
	ErrTypeAPI ErrorType = "api"
	// ErrTypeConfig represents local, pre-flight configuration problems;
	// never produced from an HTTP response
	ErrTypeConfig ErrorType = "configuration"
)

// AppError is the single structured error carried by every type in the
// taxonomy. It is immutable once constructed.
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Status    int                    `json:"status,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}

	if e.RequestID != "" {
		parts = append(parts, fmt.Sprintf("request_id=%s", e.RequestID))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// AuthenticationError creates a new authentication error
func AuthenticationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeAuthentication,
		Message: msg,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// PaymentError creates a new payment error
func PaymentError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypePayment,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeRateLimit,
		Message: msg,
	}
}

// NetworkError creates a new network error wrapping the underlying failure
func NetworkError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeNetwork,
		Message: msg,
		Cause:   cause,
	}
}

// APIError creates a new generic API error carrying the HTTP status
func APIError(msg string, status int) *AppError {
	return &AppError{
		Type:    ErrTypeAPI,
		Message: msg,
		Status:  status,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise ErrTypeNetwork
// since any non-taxonomy error reaching a caller came from the network layer.
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeNetwork
	}

	return appErr.Type
}
