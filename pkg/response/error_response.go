// Package response defines the wire shapes shared by services: the error
// body and the success/error envelope.
package response

import (
	"context"
	"net/http"
	"strings"
	"time"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/reqctx"
)

// ErrorResponse is the wire representation of a failure. Empty errors and
// details are omitted from the serialized body.
type ErrorResponse struct {
	Code      string                      `json:"code"`
	Status    int                         `json:"status"`
	Method    string                      `json:"method"`
	Path      string                      `json:"path"`
	Message   string                      `json:"message"`
	Timestamp time.Time                   `json:"timestamp"`
	Errors    []apperrors.ValidationError `json:"errors,omitempty"`
	Details   map[string]any              `json:"details,omitempty"`
}

// From copies a ServiceError into its wire form.
func From(err *apperrors.ServiceError) ErrorResponse {
	return ErrorResponse{
		Code:      err.CodeString(),
		Status:    err.StatusCode(),
		Method:    err.Method,
		Path:      err.Path,
		Message:   err.Message,
		Timestamp: err.Timestamp,
		Errors:    nonNilErrors(err.Errors),
		Details:   nonNilDetails(err.Details),
	}
}

// FromAppError copies an AppError into its wire form; the code is derived
// from the status.
func FromAppError(err *apperrors.AppError) ErrorResponse {
	status := err.StatusCode()
	return ErrorResponse{
		Code:      strings.ToLower(apperrors.StatusName(status)),
		Status:    status,
		Method:    err.Method,
		Path:      err.Path,
		Message:   err.Message,
		Timestamp: err.Timestamp,
		Errors:    []apperrors.ValidationError{},
		Details:   map[string]any{},
	}
}

// Build creates an ErrorResponse for the current request from a status and
// message. Nil collections become empty ones.
func Build(ctx context.Context, status int, message string, errs []apperrors.ValidationError, details map[string]any) ErrorResponse {
	if http.StatusText(status) == "" {
		status = http.StatusInternalServerError
	}
	return ErrorResponse{
		Code:      strings.ToLower(apperrors.StatusName(status)),
		Status:    status,
		Method:    reqctx.Method(ctx),
		Path:      reqctx.Path(ctx),
		Message:   message,
		Timestamp: time.Now().UTC(),
		Errors:    nonNilErrors(errs),
		Details:   nonNilDetails(details),
	}
}

// AppError rebuilds the local error from a downstream service's payload.
func (r ErrorResponse) AppError() *apperrors.AppError {
	return &apperrors.AppError{
		Status:    r.Status,
		Path:      r.Path,
		Method:    r.Method,
		Message:   r.Message,
		Timestamp: r.Timestamp,
	}
}

// ServiceError rebuilds the local ServiceError from a downstream service's
// payload, keeping its code, field errors and details.
func (r ErrorResponse) ServiceError() *apperrors.ServiceError {
	e := &apperrors.ServiceError{
		AppError: *r.AppError(),
		Code:     r.Code,
	}
	for _, v := range r.Errors {
		e.AddValidationError(v)
	}
	for k, v := range r.Details {
		e.AddDetail(k, v)
	}
	return e
}

func nonNilErrors(errs []apperrors.ValidationError) []apperrors.ValidationError {
	if errs == nil {
		return []apperrors.ValidationError{}
	}
	return errs
}

func nonNilDetails(details map[string]any) map[string]any {
	if details == nil {
		return map[string]any{}
	}
	return details
}
