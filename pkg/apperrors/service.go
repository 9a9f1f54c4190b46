package apperrors

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"libcommon/pkg/message"
)

// ErrorCode declares a known failure category with its status and message
// template. Services usually keep these as package-level variables.
type ErrorCode struct {
	Code    string
	Status  int
	Message string
}

// ServiceError is an AppError with a machine-readable code, optional field
// errors and free-form details.
type ServiceError struct {
	AppError

	Code    string
	Errors  []ValidationError
	Details map[string]any
}

// NewService creates a ServiceError for the current request.
func NewService(ctx context.Context, code string, status int, msg string) *ServiceError {
	return &ServiceError{
		AppError: *New(ctx, status, msg),
		Code:     code,
	}
}

// NewServiceWithErrors creates a ServiceError carrying field errors.
func NewServiceWithErrors(ctx context.Context, code string, status int, msg string, errs []ValidationError) *ServiceError {
	e := NewService(ctx, code, status, msg)
	for _, v := range errs {
		e.AddValidationError(v)
	}
	return e
}

// FromStatus creates a ServiceError whose code is the status name, e.g.
// FORBIDDEN.
func FromStatus(ctx context.Context, status int, msg string) *ServiceError {
	return NewService(ctx, StatusName(status), status, msg)
}

// Of creates a ServiceError from a declared code, resolving "{}"
// placeholders in its message with args.
func Of(ctx context.Context, ec ErrorCode, args ...any) *ServiceError {
	msg := ec.Message
	if len(args) > 0 {
		msg = message.Format(ec.Message, args...)
	}
	return NewService(ctx, ec.Code, ec.Status, msg)
}

// Forbidden creates a 403 with the default message.
func Forbidden(ctx context.Context) *ServiceError {
	return FromStatus(ctx, http.StatusForbidden, "Operation not permitted!")
}

// Forbiddenf creates a 403 with a "{}" message template.
func Forbiddenf(ctx context.Context, msg string, args ...any) *ServiceError {
	return FromStatus(ctx, http.StatusForbidden, message.Format(msg, args...))
}

// Unauthorized creates a 401 with the default message.
func Unauthorized(ctx context.Context) *ServiceError {
	return FromStatus(ctx, http.StatusUnauthorized, "Unauthorized request!")
}

// Unauthorizedf creates a 401 with a "{}" message template.
func Unauthorizedf(ctx context.Context, msg string, args ...any) *ServiceError {
	return FromStatus(ctx, http.StatusUnauthorized, message.Format(msg, args...))
}

// BadRequest creates a 400 with the given message.
func BadRequest(ctx context.Context, msg string) *ServiceError {
	return FromStatus(ctx, http.StatusBadRequest, msg)
}

// BadRequestf creates a 400 with a "{}" message template.
func BadRequestf(ctx context.Context, msg string, args ...any) *ServiceError {
	return FromStatus(ctx, http.StatusBadRequest, message.Format(msg, args...))
}

// NotFoundf creates a 404 with a "{}" message template.
func NotFoundf(ctx context.Context, msg string, args ...any) *ServiceError {
	return FromStatus(ctx, http.StatusNotFound, message.Format(msg, args...))
}

// Error returns the human-readable error message.
func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a ServiceError with the same code, so callers
// can use errors.Is against declared values.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && strings.EqualFold(t.Code, e.Code)
}

// IsCode reports whether the error carries code.
func (e *ServiceError) IsCode(code string) bool {
	return e != nil && code != "" && e.Code == code
}

// IsErrorCode reports whether the error was raised for ec.
func (e *ServiceError) IsErrorCode(ec ErrorCode) bool {
	return e.IsCode(ec.Code)
}

// CodeString returns the code as transmitted on the wire: lower-cased.
func (e *ServiceError) CodeString() string {
	if e == nil {
		return ""
	}
	return strings.ToLower(e.Code)
}

// AddError appends a field error.
func (e *ServiceError) AddError(property, msg string) *ServiceError {
	return e.AddValidationError(ValidationError{Property: property, Message: msg})
}

// AddValidationError appends a field error.
func (e *ServiceError) AddValidationError(v ValidationError) *ServiceError {
	e.Errors = append(e.Errors, v)
	return e
}

// AddDetail stores a detail value under key.
func (e *ServiceError) AddDetail(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Detail returns the detail stored under key.
func (e *ServiceError) Detail(key string) any {
	if e == nil {
		return nil
	}
	return e.Details[key]
}

// FormatDetails renders details as "key: value" pairs sorted by key.
func (e *ServiceError) FormatDetails() string {
	if e == nil || len(e.Details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Details[k]))
	}
	return strings.Join(parts, ", ")
}
