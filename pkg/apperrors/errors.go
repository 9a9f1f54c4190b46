// Package apperrors provides the application error hierarchy shared by
// services: a base AppError carrying HTTP status and request origin, and a
// ServiceError adding a machine-readable code, field errors and details.
package apperrors

import (
	"context"
	"errors"
	"net/http"
	"time"

	"libcommon/pkg/reqctx"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrGatewayTimeout = errors.New("gateway timeout")
)

// AppError is a failure originating in application logic. It is built at the
// failure site and not mutated afterwards.
type AppError struct {
	Status    int
	Path      string
	Method    string
	Message   string
	Timestamp time.Time
	Cause     error // Underlying error, never sent to clients
}

// New creates an AppError stamped with the current request's path and method.
func New(ctx context.Context, status int, message string) *AppError {
	return &AppError{
		Status:    normalizeStatus(status),
		Path:      reqctx.Path(ctx),
		Method:    reqctx.Method(ctx),
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates an AppError that keeps cause for logging.
func Wrap(ctx context.Context, status int, message string, cause error) *AppError {
	e := New(ctx, status, message)
	e.Cause = cause
	return e
}

// Error returns the human-readable error message.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// StatusCode returns the HTTP status carried by the error.
func (e *AppError) StatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	return normalizeStatus(e.Status)
}

// ValidationError is one field-level validation failure.
type ValidationError struct {
	Property string `json:"property"`
	Message  string `json:"message"`
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}
