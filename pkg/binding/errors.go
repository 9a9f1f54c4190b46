// Package binding turns HTTP request input into typed values and reports
// request-shape failures (missing parameters, invalid fields) as errors the
// error handler maps to 400 responses.
package binding

import (
	"fmt"
	"net/http"
	"strings"
)

// MissingParameterError reports a required query parameter that was absent.
type MissingParameterError struct {
	Name string
	Type string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("Required request parameter '%s' for method parameter type %s is not present", e.Name, typeName(e.Type))
}

// StatusCode returns 400.
func (e *MissingParameterError) StatusCode() int { return http.StatusBadRequest }

// MissingPathVariableError reports a route variable that was absent.
type MissingPathVariableError struct {
	Name string
	Type string
}

func (e *MissingPathVariableError) Error() string {
	return fmt.Sprintf("Required URI template variable '%s' for method parameter type %s is not present", e.Name, typeName(e.Type))
}

// StatusCode returns 400.
func (e *MissingPathVariableError) StatusCode() int { return http.StatusBadRequest }

// FieldError is one rejected field of a bound object. Code is the failed
// constraint (required, max, typeMismatch, ...).
type FieldError struct {
	Object         string
	Field          string
	Code           string
	Param          string
	DefaultMessage string
}

// Codes returns message-catalog keys from most to least specific.
func (e FieldError) Codes() []string {
	codes := make([]string, 0, 3)
	if e.Object != "" {
		codes = append(codes, e.Object+"."+e.Field+"."+e.Code)
	}
	return append(codes, e.Field+"."+e.Code, e.Code)
}

// ObjectError is a failure of the bound object as a whole, e.g. a
// cross-field rule or an unreadable body.
type ObjectError struct {
	Object         string
	Code           string
	DefaultMessage string
}

// Codes returns message-catalog keys from most to least specific.
func (e ObjectError) Codes() []string {
	if e.Object == "" {
		return []string{e.Code}
	}
	return []string{e.Object + "." + e.Code, e.Code}
}

// BindError reports that a request body or query could not be bound to
// Object.
type BindError struct {
	Object       string
	FieldErrors  []FieldError
	GlobalErrors []ObjectError
}

func (e *BindError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation failed for object '%s'. Error count: %d", e.Object, e.ErrorCount())
	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&sb, "; field '%s': %s", fe.Field, fe.DefaultMessage)
	}
	for _, ge := range e.GlobalErrors {
		fmt.Fprintf(&sb, "; %s", ge.DefaultMessage)
	}
	return sb.String()
}

// StatusCode returns 400.
func (e *BindError) StatusCode() int { return http.StatusBadRequest }

// ErrorCount returns the number of field and global errors.
func (e *BindError) ErrorCount() int {
	return len(e.FieldErrors) + len(e.GlobalErrors)
}

// AddFieldError appends a field error.
func (e *BindError) AddFieldError(fe FieldError) {
	if fe.Object == "" {
		fe.Object = e.Object
	}
	e.FieldErrors = append(e.FieldErrors, fe)
}

// AddGlobalError appends an object-level error.
func (e *BindError) AddGlobalError(code, msg string) {
	e.GlobalErrors = append(e.GlobalErrors, ObjectError{Object: e.Object, Code: code, DefaultMessage: msg})
}

// Violation is one failed constraint found by programmatic validation.
// PropertyPath is dotted, e.g. "Item.name".
type Violation struct {
	PropertyPath string
	Code         string
	Message      string
}

// ConstraintViolationError reports programmatic validation failures, outside
// request binding.
type ConstraintViolationError struct {
	Violations []Violation
}

func (e *ConstraintViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.PropertyPath+": "+v.Message)
	}
	return strings.Join(parts, ", ")
}

// StatusCode returns 400.
func (e *ConstraintViolationError) StatusCode() int { return http.StatusBadRequest }

func typeName(t string) string {
	if t == "" {
		return "string"
	}
	return t
}
