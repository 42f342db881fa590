// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler turns arbitrary errors into StandardErrors and logs them.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err and logs it at a level matching its category.
// It returns nil for a nil err.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)
	h.logError(operation, stdErr)
	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(operation string, stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	category := GetErrorCategory(stdErr.Code)
	fields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"errorCategory": category,
	}
	switch category {
	case "INPUT":
		h.logger.Info("Input rejected", fields)
	case "TRANSPORT", "RESPONSE":
		h.logger.Warn("Collaborator call failed", fields)
	default:
		h.logger.Error("Operation failed", fields)
	}
}
