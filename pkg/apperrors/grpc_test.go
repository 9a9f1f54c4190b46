package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCCode_RoundTripsKnownStatuses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status int
		code   codes.Code
	}{
		{http.StatusBadRequest, codes.InvalidArgument},
		{http.StatusUnauthorized, codes.Unauthenticated},
		{http.StatusForbidden, codes.PermissionDenied},
		{http.StatusNotFound, codes.NotFound},
		{http.StatusConflict, codes.AlreadyExists},
		{http.StatusServiceUnavailable, codes.Unavailable},
		{http.StatusGatewayTimeout, codes.DeadlineExceeded},
		{http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := GRPCCode(tt.status); got != tt.code {
				t.Errorf("GRPCCode(%d) = %v, want %v", tt.status, got, tt.code)
			}
			if got := HTTPStatusFromCode(tt.code); got != tt.status {
				t.Errorf("HTTPStatusFromCode(%v) = %d, want %d", tt.code, got, tt.status)
			}
		})
	}

	if got := GRPCCode(http.StatusTeapot); got != codes.FailedPrecondition {
		t.Errorf("unmapped 4xx = %v", got)
	}
}

func TestServiceError_GRPCStatus(t *testing.T) {
	t.Parallel()
	se := Of(context.Background(), errItemMissing, 3)
	se.AddDetail("id", 3).AddError("id", "unknown")

	st, ok := status.FromError(se)
	if !ok {
		t.Fatal("expected FromError to recognise ServiceError")
	}
	if st.Code() != codes.NotFound || st.Message() != "item 3 not found" {
		t.Fatalf("status = %v %q", st.Code(), st.Message())
	}

	var info *errdetails.ErrorInfo
	var br *errdetails.BadRequest
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			info = v
		case *errdetails.BadRequest:
			br = v
		}
	}
	if info == nil || info.GetReason() != "ITEM_NOT_FOUND" || info.GetMetadata()["id"] != "3" {
		t.Errorf("ErrorInfo = %v", info)
	}
	if br == nil || len(br.GetFieldViolations()) != 1 || br.GetFieldViolations()[0].GetField() != "id" {
		t.Errorf("BadRequest = %v", br)
	}
}

func TestFromGRPC(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	orig := Of(ctx, errItemMissing, 5).AddDetail("id", 5).AddError("id", "unknown")
	err := FromGRPC(ctx, orig.GRPCStatus().Err())

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if se.Code != "ITEM_NOT_FOUND" || se.StatusCode() != http.StatusNotFound {
		t.Errorf("got (%q, %d)", se.Code, se.StatusCode())
	}
	if se.Detail("id") != "5" || len(se.Errors) != 1 {
		t.Errorf("details = %v, errors = %v", se.Details, se.Errors)
	}

	timeout := FromGRPC(ctx, status.Error(codes.DeadlineExceeded, "slow"))
	if !IsTimeout(timeout) || HTTPStatus(timeout) != http.StatusGatewayTimeout {
		t.Errorf("deadline should classify as timeout: %v", timeout)
	}

	plain := fmt.Errorf("not grpc")
	if got := FromGRPC(ctx, plain); got != plain {
		t.Errorf("non-status error should pass through, got %v", got)
	}
	if FromGRPC(ctx, nil) != nil {
		t.Error("nil should stay nil")
	}

	var nilSvc *ServiceError
	wrapped := fmt.Errorf("lookup: %w", nilSvc)
	if got := FromGRPC(ctx, wrapped); got != wrapped {
		t.Errorf("typed nil should pass through, got %v", got)
	}
}
