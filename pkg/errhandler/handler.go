// Package errhandler converts any error that reaches the request boundary
// into a status code and a wrapped ErrorResponse. It is the single place
// where failures are normalized for clients.
package errhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"google.golang.org/grpc/status"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/binding"
	"libcommon/pkg/message"
	"libcommon/pkg/observability"
	"libcommon/pkg/reqctx"
	"libcommon/pkg/response"
)

// Fixed client-facing messages.
const (
	MsgTimeout          = "Service timeout error"
	MsgInvalidArgValues = "Invalid argument values"
	MsgInvalidArguments = "Invalid Arguments"
	MsgInternalError    = "Internal Service Error"
)

// Body is the serialized error envelope.
type Body = response.Wrapper[response.ErrorResponse]

// Handler maps errors to responses. It is safe for concurrent use.
type Handler struct {
	messages *message.Source
	metrics  *observability.Metrics
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the clock used to stamp responses built outside a request.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a Handler. messages and metrics may be nil.
func New(messages *message.Source, metrics *observability.Metrics, opts ...Option) *Handler {
	h := &Handler{
		messages: messages,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle returns the status and body for err. It never panics and has no
// side effects other than logging and metrics, so mapping the same error
// twice within a request yields the same result.
func (h *Handler) Handle(ctx context.Context, err error) (int, Body) {
	var (
		svcErr     *apperrors.ServiceError
		appErr     *apperrors.AppError
		violations *binding.ConstraintViolationError
		bindErr    *binding.BindError
		missingP   *binding.MissingParameterError
		missingV   *binding.MissingPathVariableError
		grpcErr    interface{ GRPCStatus() *status.Status }
	)

	var body response.ErrorResponse
	switch {
	case errors.As(err, &svcErr) && svcErr != nil:
		slog.ErrorContext(ctx, "Service error",
			"status", svcErr.StatusCode(),
			"code", svcErr.Code,
			"message", svcErr.Message,
			"details", svcErr.FormatDetails(),
			"error", svcErr.Cause,
		)
		body = response.From(svcErr)

	case errors.As(err, &appErr) && appErr != nil:
		slog.ErrorContext(ctx, "Application error",
			"status", appErr.StatusCode(),
			"message", appErr.Message,
			"error", appErr.Cause,
		)
		body = response.FromAppError(appErr)

	case apperrors.IsTimeout(err):
		slog.ErrorContext(ctx, "Service timeout error", "status", http.StatusGatewayTimeout, "error", err)
		body = h.build(ctx, http.StatusGatewayTimeout, MsgTimeout, nil)

	case errors.As(err, &violations) && violations != nil:
		slog.ErrorContext(ctx, "Constraint violation error", "error", err)
		body = h.build(ctx, http.StatusBadRequest, MsgInvalidArgValues, h.violationErrors(ctx, violations))

	case errors.As(err, &bindErr) && bindErr != nil:
		slog.ErrorContext(ctx, "Method argument not valid", "object", bindErr.Object, "error", err)
		body = h.build(ctx, http.StatusBadRequest, MsgInvalidArguments, h.bindErrors(ctx, bindErr))

	case errors.As(err, &missingP) && missingP != nil:
		slog.ErrorContext(ctx, "Missing request param error", "error", err)
		body = h.build(ctx, http.StatusBadRequest, missingP.Error(), nil)

	case errors.As(err, &missingV) && missingV != nil:
		slog.ErrorContext(ctx, "Missing path variable error", "error", err)
		body = h.build(ctx, http.StatusBadRequest, missingV.Error(), nil)

	case errors.As(err, &grpcErr) && fromGRPC(ctx, err, &svcErr):
		return h.Handle(ctx, svcErr)

	default:
		slog.ErrorContext(ctx, "Unexpected internal server error", "status", http.StatusInternalServerError, "error", err)
		body = h.build(ctx, http.StatusInternalServerError, MsgInternalError, nil)
	}

	h.metrics.RecordErrorResponse(ctx, body.Status, body.Code)
	return body.Status, response.ErrorOf(body)
}

// Write maps err and writes the JSON envelope to w.
func (h *Handler) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, body := h.Handle(r.Context(), err)
	response.WriteJSON(w, status, body)
}

// build stamps the response with the request's receive time so repeated
// mapping within one request is byte-identical.
func (h *Handler) build(ctx context.Context, status int, msg string, errs []apperrors.ValidationError) response.ErrorResponse {
	body := response.Build(ctx, status, msg, errs, nil)
	if received, ok := reqctx.Received(ctx); ok {
		body.Timestamp = received
	} else {
		body.Timestamp = h.now()
	}
	return body
}

func (h *Handler) violationErrors(ctx context.Context, cv *binding.ConstraintViolationError) []apperrors.ValidationError {
	errs := make([]apperrors.ValidationError, 0, len(cv.Violations))
	for _, v := range cv.Violations {
		field := lastSegment(v.PropertyPath)
		msg := h.resolve(ctx, []string{field + "." + v.Code, v.Code}, v.Message, "")
		errs = append(errs, apperrors.ValidationError{Property: field, Message: msg})
	}
	return errs
}

func (h *Handler) bindErrors(ctx context.Context, be *binding.BindError) []apperrors.ValidationError {
	errs := make([]apperrors.ValidationError, 0, be.ErrorCount())
	for _, fe := range be.FieldErrors {
		msg := h.resolve(ctx, fe.Codes(), fe.DefaultMessage, fe.Param)
		errs = append(errs, apperrors.ValidationError{Property: fe.Field, Message: msg})
	}
	for _, ge := range be.GlobalErrors {
		msg := h.resolve(ctx, ge.Codes(), ge.DefaultMessage, "")
		errs = append(errs, apperrors.ValidationError{Property: ge.Object, Message: msg})
	}
	return errs
}

// resolve looks codes up in the catalog for the request locale, then the
// fallback message itself as a key, and finally returns fallback verbatim.
// A "{}" in a catalog message is replaced by param.
func (h *Handler) resolve(ctx context.Context, codes []string, fallback, param string) string {
	if h.messages == nil {
		return fallback
	}
	tag := reqctx.Locale(ctx, h.messages.Fallback())
	for _, code := range slices.Concat(codes, []string{fallback}) {
		if code == "" {
			continue
		}
		if msg, ok := h.messages.Lookup(tag, code); ok {
			return fillParam(msg, param)
		}
	}
	return fallback
}

func fillParam(msg, param string) string {
	if param == "" {
		return msg
	}
	if out, ok := message.Resolve(msg, param); ok {
		return out
	}
	return msg
}

// fromGRPC converts a status-carrying error into a *ServiceError. It reports
// false when the error yields no status, e.g. GRPCStatus returned nil.
func fromGRPC(ctx context.Context, err error, target **apperrors.ServiceError) bool {
	converted, ok := apperrors.FromGRPC(ctx, err).(*apperrors.ServiceError)
	if !ok || converted == nil {
		return false
	}
	*target = converted
	return true
}

func lastSegment(path string) string {
	return path[strings.LastIndex(path, ".")+1:]
}
