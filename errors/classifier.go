package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// HTTPFailure is the transport-level failure for any non-2xx response. It
// carries the raw, untransformed response so classification can inspect the
// gateway's own field spellings. The transport produces it; Classify maps it
// into the taxonomy exactly once, at the service boundary.
type HTTPFailure struct {
	Status     int
	StatusText string
	Body       interface{}
	RawBody    []byte
	RequestID  string
}

// Error implements the error interface
func (f *HTTPFailure) Error() string {
	return fmt.Sprintf("http %d %s", f.Status, f.StatusText)
}

// codeTypes maps the gateway's error code strings onto the taxonomy.
// Dispatch is an exact string match; unknown codes fall back to ErrTypeAPI.
var codeTypes = map[string]ErrorType{
	"UNAUTHORIZED":        ErrTypeAuthentication,
	"INVALID_CREDENTIALS": ErrTypeAuthentication,
	"INVALID_TOKEN":       ErrTypeAuthentication,
	"TOKEN_EXPIRED":       ErrTypeAuthentication,
	"INSUFFICIENT_SCOPE":  ErrTypeAuthentication,

	"INVALID_REQUEST":  ErrTypeValidation,
	"VALIDATION_ERROR": ErrTypeValidation,
	"MISSING_FIELD":    ErrTypeValidation,
	"INVALID_FIELD":    ErrTypeValidation,

	"PAYMENT_FAILED":     ErrTypePayment,
	"PAYMENT_DECLINED":   ErrTypePayment,
	"CARD_DECLINED":      ErrTypePayment,
	"INSUFFICIENT_FUNDS": ErrTypePayment,

	"NOT_FOUND":              ErrTypeNotFound,
	"CUSTOMER_NOT_FOUND":     ErrTypeNotFound,
	"CARD_NOT_FOUND":         ErrTypeNotFound,
	"PLAN_NOT_FOUND":         ErrTypeNotFound,
	"SUBSCRIPTION_NOT_FOUND": ErrTypeNotFound,
	"TRANSACTION_NOT_FOUND":  ErrTypeNotFound,
	"INVOICE_NOT_FOUND":      ErrTypeNotFound,

	"RATE_LIMIT_EXCEEDED": ErrTypeRateLimit,
	"TOO_MANY_REQUESTS":   ErrTypeRateLimit,
}

// Classify maps a terminal HTTP outcome into exactly one typed error.
//
// Dispatch order:
//  1. an existing *AppError passes through unchanged
//  2. an *HTTPFailure is matched on the gateway's `error` code string;
//     unmatched codes become an API error carrying the status
//  3. anything else never produced an HTTP response and is a network
//     error, with timeouts called out in the message
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var failure *HTTPFailure
	if stderrors.As(err, &failure) {
		return classifyFailure(failure)
	}

	if isTimeout(err) {
		return NetworkError("request timed out", err)
	}

	return NetworkError("network request failed", err)
}

func classifyFailure(f *HTTPFailure) *AppError {
	code, message, details, requestID := failureFields(f)

	errType, known := codeTypes[code]
	if !known {
		errType = ErrTypeAPI
	}

	if message == "" {
		message = fmt.Sprintf("request failed with status %d", f.Status)
	}

	return &AppError{
		Type:      errType,
		Message:   message,
		Status:    f.Status,
		Details:   details,
		RequestID: requestID,
		Cause:     f,
	}
}

// failureFields pulls {error, message, details, request_id} out of the
// decoded body, tolerating any body shape the gateway throws at us.
func failureFields(f *HTTPFailure) (code, message string, details map[string]interface{}, requestID string) {
	requestID = f.RequestID

	body, ok := f.Body.(map[string]interface{})
	if !ok {
		return "", "", nil, requestID
	}

	if v, ok := body["error"].(string); ok {
		code = v
	}
	if v, ok := body["message"].(string); ok {
		message = v
	}
	if v, ok := body["details"].(map[string]interface{}); ok {
		details = v
	}
	if v, ok := body["request_id"].(string); ok && v != "" {
		requestID = v
	}

	return code, message, details, requestID
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
