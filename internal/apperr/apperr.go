// Package apperr maps service errors onto HTTP status codes and the stable
// error codes returned to API clients.
package apperr

import (
	"courier-service/internal/ports"
	"courier-service/internal/session"
	"courier-service/internal/workflow"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// AppError is an error with a client-facing message, code and status.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"error"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Wrap attaches the underlying cause, which is logged but never sent.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// WithDetails attaches per-field messages, typically validation failures.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Validation(message string) *AppError {
	return New(CodeValidationError, message, http.StatusBadRequest)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found", http.StatusNotFound)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Internal() *AppError {
	return New(CodeInternalError, "internal server error", http.StatusInternalServerError)
}

func RateLimited() *AppError {
	return New(CodeRateLimitExceeded, "too many requests, please try again later", http.StatusTooManyRequests)
}

// From converts any error into an AppError. Known sentinels keep their
// meaning; anything else becomes an internal error wrapping err.
func From(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, workflow.ErrInvalidDailyInput):
		return Validation(err.Error()).Wrap(err)
	case errors.Is(err, workflow.ErrPackageNotFound):
		return NotFound("package").Wrap(err)
	case errors.Is(err, workflow.ErrAlreadyProcessed):
		return Conflict("package already processed").Wrap(err)
	case errors.Is(err, session.ErrSessionNotFound):
		return NotFound("session").Wrap(err)
	case errors.Is(err, ports.ErrNotFound):
		return NotFound("resource").Wrap(err)
	case errors.Is(err, ports.ErrConflict):
		return Conflict("resource already exists").Wrap(err)
	}
	return Internal().Wrap(err)
}
