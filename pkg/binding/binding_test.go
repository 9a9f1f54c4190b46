package binding

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"libcommon/pkg/apperrors"
)

type createItem struct {
	Name  string `json:"name" validate:"required,max=5"`
	Count int    `json:"count" validate:"min=1"`
}

func TestMissingErrors_Messages(t *testing.T) {
	t.Parallel()
	p := &MissingParameterError{Name: "page", Type: "int"}
	if got := p.Error(); got != "Required request parameter 'page' for method parameter type int is not present" {
		t.Errorf("unexpected message %q", got)
	}
	v := &MissingPathVariableError{Name: "id"}
	if got := v.Error(); got != "Required URI template variable 'id' for method parameter type string is not present" {
		t.Errorf("unexpected message %q", got)
	}
	if apperrors.HTTPStatus(p) != http.StatusBadRequest || apperrors.HTTPStatus(v) != http.StatusBadRequest {
		t.Error("binding errors must map to 400")
	}
}

func TestValidate_ReturnsConstraintViolations(t *testing.T) {
	t.Parallel()
	err := Validate(createItem{Name: "too-long-name", Count: 0})

	var cv *ConstraintViolationError
	if !errors.As(err, &cv) {
		t.Fatalf("expected ConstraintViolationError, got %v", err)
	}
	if len(cv.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", cv.Violations)
	}
	if cv.Violations[0].PropertyPath != "createItem.name" || cv.Violations[0].Code != "max" {
		t.Errorf("unexpected violation %+v", cv.Violations[0])
	}
	if cv.Violations[1].Message != "must be greater than or equal to 1" {
		t.Errorf("unexpected message %q", cv.Violations[1].Message)
	}
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()
	if err := Validate(createItem{Name: "ok", Count: 2}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		body       string
		wantField  string
		wantCode   string
		wantGlobal string
	}{
		{name: "valid", body: `{"name":"ok","count":1}`},
		{name: "missing name", body: `{"count":1}`, wantField: "name", wantCode: "required"},
		{name: "type mismatch", body: `{"name":"ok","count":"x"}`, wantField: "count", wantCode: "typeMismatch"},
		{name: "empty body", body: ``, wantGlobal: "required"},
		{name: "malformed", body: `{"name":`, wantGlobal: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/v1/items", strings.NewReader(tt.body))
			var dst createItem
			err := DecodeJSON(r, &dst)

			if tt.wantField == "" && tt.wantGlobal == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}

			var be *BindError
			if !errors.As(err, &be) {
				t.Fatalf("expected BindError, got %v", err)
			}
			if be.Object != "createItem" {
				t.Errorf("object = %q", be.Object)
			}
			if tt.wantField != "" {
				if len(be.FieldErrors) != 1 || be.FieldErrors[0].Field != tt.wantField || be.FieldErrors[0].Code != tt.wantCode {
					t.Errorf("unexpected field errors %+v", be.FieldErrors)
				}
			}
			if tt.wantGlobal != "" {
				if len(be.GlobalErrors) != 1 || be.GlobalErrors[0].Code != tt.wantGlobal {
					t.Errorf("unexpected global errors %+v", be.GlobalErrors)
				}
			}
		})
	}
}

func TestFieldError_Codes(t *testing.T) {
	t.Parallel()
	fe := FieldError{Object: "createItem", Field: "name", Code: "max"}
	got := strings.Join(fe.Codes(), ",")
	if got != "createItem.name.max,name.max,max" {
		t.Errorf("Codes() = %s", got)
	}
	oe := ObjectError{Code: "malformed"}
	if len(oe.Codes()) != 1 {
		t.Errorf("Codes() = %v", oe.Codes())
	}
}

func TestQueryParamAndPathVariable(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/v1/items?q=book", nil)
	if v, err := QueryParam(r, "q"); err != nil || v != "book" {
		t.Errorf("QueryParam = %q, %v", v, err)
	}
	var mp *MissingParameterError
	if _, err := QueryParam(r, "missing"); !errors.As(err, &mp) {
		t.Errorf("expected MissingParameterError, got %v", err)
	}

	var mv *MissingPathVariableError
	if _, err := PathVariable(r, "id"); !errors.As(err, &mv) {
		t.Errorf("expected MissingPathVariableError, got %v", err)
	}
	r.SetPathValue("id", "42")
	if v, err := PathVariable(r, "id"); err != nil || v != "42" {
		t.Errorf("PathVariable = %q, %v", v, err)
	}
}

type assignRequest struct {
	OwnerID *int64 `json:"ownerId" validate:"id"`
}

func TestCheck_IDConstraint(t *testing.T) {
	t.Parallel()
	zero, negative, valid := int64(0), int64(-4), int64(7)
	tests := []struct {
		name     string
		ownerID  *int64
		wantCode string
		wantMsg  string
	}{
		{name: "missing", ownerID: nil, wantCode: "id.not_null", wantMsg: "must not be null"},
		{name: "zero", ownerID: &zero, wantCode: "id.positive", wantMsg: "must be greater than 0"},
		{name: "negative", ownerID: &negative, wantCode: "id.positive", wantMsg: "must be greater than 0"},
		{name: "valid", ownerID: &valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Check("assignRequest", assignRequest{OwnerID: tt.ownerID})
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			var be *BindError
			if !errors.As(err, &be) || len(be.FieldErrors) != 1 {
				t.Fatalf("expected one field error, got %v", err)
			}
			fe := be.FieldErrors[0]
			if fe.Field != "ownerId" || fe.Code != tt.wantCode || fe.DefaultMessage != tt.wantMsg {
				t.Errorf("field error = %+v", fe)
			}
			if codes := fe.Codes(); codes[len(codes)-1] != tt.wantCode {
				t.Errorf("Codes() = %v", codes)
			}
		})
	}

	var cv *ConstraintViolationError
	if err := Validate(assignRequest{}); !errors.As(err, &cv) || cv.Violations[0].Code != "id.not_null" {
		t.Errorf("Validate() = %v", err)
	}
}

type color string

const (
	red   color = "RED"
	green color = "GREEN"
)

func TestEnumOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		want   color
		wantOK bool
	}{
		{"red", red, true},
		{"Green", green, true},
		{"GREEN", green, true},
		{"blue", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := EnumOf(tt.in, red, green)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("EnumOf(%q) = %q, %v", tt.in, got, ok)
		}
	}

	if c, err := ParseEnum("rEd", red, green); err != nil || c != red {
		t.Errorf("ParseEnum(rEd) = %q, %v", c, err)
	}
	_, err := ParseEnum("blue", red, green)
	if err == nil || err.Error() != `unknown constant "blue", expected one of [RED, GREEN]` {
		t.Errorf("ParseEnum(blue) error = %v", err)
	}
}
