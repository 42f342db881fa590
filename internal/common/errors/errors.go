// Package errors provides standardized error values for the symptom session.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors are recoverable and shown inline next to the input control.
const (
	ErrCodeEmptyInput       ErrorCode = "EMPTY_INPUT"
	ErrCodeDuplicateSymptom ErrorCode = "DUPLICATE_SYMPTOM"
	ErrCodeIndexOutOfRange  ErrorCode = "INDEX_OUT_OF_RANGE"
	ErrCodeNoSymptoms       ErrorCode = "NO_SYMPTOMS"
	ErrCodeInvalidProfile   ErrorCode = "INVALID_PROFILE"
)

// Collaborator errors.
const (
	ErrCodeAutocompleteTransportFailed ErrorCode = "AUTOCOMPLETE_TRANSPORT_FAILED"
	ErrCodeAnalyzeTransportFailed      ErrorCode = "ANALYZE_TRANSPORT_FAILED"
	ErrCodeInvalidResponse             ErrorCode = "INVALID_RESPONSE"
	ErrCodeUnexpectedStatus            ErrorCode = "UNEXPECTED_STATUS"
	ErrCodeServiceUnavailable          ErrorCode = "SERVICE_UNAVAILABLE"
)

const (
	ErrCodeStaleResponseDiscarded ErrorCode = "STALE_RESPONSE_DISCARDED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Message is the
// text a user sees; Details carries diagnostic context for logs.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches on Code, so a sentinel matches any error carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of e carrying details.
func (e *StandardError) WithDetails(details string) *StandardError {
	cp := *e
	cp.Details = details
	cp.Timestamp = time.Now().UTC()
	return &cp
}

// ==========================
// 2. Error Constructors
// ==========================

// New creates an error for code.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func NewAutocompleteTransportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAutocompleteTransportFailed,
		Message:   "Suggestions are unavailable",
		Details:   errText(err),
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalyzeTransportError carries the advisory shown in the results area.
func NewAnalyzeTransportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalyzeTransportFailed,
		Message:   "Unable to reach the analysis service. Check your connection and try again.",
		Details:   errText(err),
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidResponseError(endpoint string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidResponse,
		Message:   fmt.Sprintf("Malformed response from %s", endpoint),
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnexpectedStatusError(endpoint string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedStatus,
		Message:   fmt.Sprintf("Unexpected status from %s", endpoint),
		Details:   fmt.Sprintf("status: %d", status),
		Timestamp: time.Now().UTC(),
	}
}

func NewServiceUnavailableError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeServiceUnavailable,
		Message:   fmt.Sprintf("Service '%s' unavailable", service),
		Details:   errText(err),
		Timestamp: time.Now().UTC(),
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Classification helpers
// ==========================

// As extracts the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeStaleResponseDiscarded:
		return "INTERNAL"
	case code == ErrCodeEmptyInput, code == ErrCodeDuplicateSymptom,
		code == ErrCodeIndexOutOfRange, code == ErrCodeNoSymptoms,
		code == ErrCodeInvalidProfile:
		return "INPUT"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "UNAVAILABLE"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "RESPONSE") || strings.Contains(codeStr, "STATUS"):
		return "RESPONSE"
	default:
		return "INTERNAL"
	}
}
