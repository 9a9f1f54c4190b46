package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorDomain is the ErrorInfo domain attached to ServiceError statuses.
const errorDomain = "libcommon"

// GRPCCode maps an HTTP status to the closest gRPC code.
func GRPCCode(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusOK:
		return codes.OK
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusPreconditionFailed:
		return codes.FailedPrecondition
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	}
	if httpStatus >= 400 && httpStatus < 500 {
		return codes.FailedPrecondition
	}
	return codes.Internal
}

// HTTPStatusFromCode is the inverse of GRPCCode for codes it produces.
func HTTPStatusFromCode(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded, codes.Canceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus lets status.FromError convert an AppError.
func (e *AppError) GRPCStatus() *status.Status {
	if e == nil {
		return nil
	}
	return status.New(GRPCCode(e.StatusCode()), e.Message)
}

// GRPCStatus converts the error to a status carrying an ErrorInfo with the
// code and details, plus a BadRequest listing field errors when present.
func (e *ServiceError) GRPCStatus() *status.Status {
	if e == nil {
		return nil
	}
	st := status.New(GRPCCode(e.StatusCode()), e.Message)

	info := &errdetails.ErrorInfo{Reason: e.Code, Domain: errorDomain}
	if len(e.Details) > 0 {
		info.Metadata = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			info.Metadata[k] = fmt.Sprint(v)
		}
	}

	var violations []*errdetails.BadRequest_FieldViolation
	for _, v := range e.Errors {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       v.Property,
			Description: v.Message,
		})
	}

	var (
		withDetails *status.Status
		err         error
	)
	if len(violations) > 0 {
		withDetails, err = st.WithDetails(info, &errdetails.BadRequest{FieldViolations: violations})
	} else {
		withDetails, err = st.WithDetails(info)
	}
	if err != nil {
		return st
	}
	return withDetails
}

// FromGRPC rebuilds a ServiceError from a gRPC error. Errors that carry no
// status are returned unchanged; deadline and unavailability codes also wrap
// ErrGatewayTimeout.
func FromGRPC(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	// status.FromError rewrites the message of wrapped statuses.
	var gs interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &gs) {
		return err
	}
	st := gs.GRPCStatus()
	if st == nil {
		return err
	}

	httpStatus := HTTPStatusFromCode(st.Code())
	se := FromStatus(ctx, httpStatus, st.Message())
	for _, d := range st.Details() {
		switch detail := d.(type) {
		case *errdetails.ErrorInfo:
			if detail.GetReason() != "" {
				se.Code = detail.GetReason()
			}
			keys := make([]string, 0, len(detail.GetMetadata()))
			for k := range detail.GetMetadata() {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				se.AddDetail(k, detail.GetMetadata()[k])
			}
		case *errdetails.BadRequest:
			for _, v := range detail.GetFieldViolations() {
				se.AddError(v.GetField(), v.GetDescription())
			}
		}
	}

	if st.Code() == codes.DeadlineExceeded || st.Code() == codes.Unavailable {
		se.Cause = errors.Join(ErrGatewayTimeout, err)
	} else {
		se.Cause = err
	}
	return se
}
