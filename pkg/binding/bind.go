package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	// A reference to another entity: present and positive. Use on pointer
	// fields so that zero is reported as not positive rather than missing.
	v.RegisterAlias("id", "required,gt=0")
	return v
}

// Validator returns the shared validator so services can register custom
// tags and struct-level rules.
func Validator() *validator.Validate {
	return validate
}

// Validate checks v's `validate` tags. Failures are returned as a
// *ConstraintViolationError.
func Validate(v any) error {
	errs, err := runValidation(v)
	if err != nil || len(errs) == 0 {
		return err
	}
	cv := &ConstraintViolationError{Violations: make([]Violation, 0, len(errs))}
	for _, fe := range errs {
		code := constraintCode(fe)
		cv.Violations = append(cv.Violations, Violation{
			PropertyPath: fe.Namespace(),
			Code:         code,
			Message:      DefaultMessage(code, fe.Param()),
		})
	}
	return cv
}

// Check validates v as the bound object named object. Failures are returned
// as a *BindError.
func Check(object string, v any) error {
	errs, err := runValidation(v)
	if err != nil || len(errs) == 0 {
		return err
	}
	be := &BindError{Object: object}
	for _, fe := range errs {
		code := constraintCode(fe)
		if fe.Field() == "" {
			be.AddGlobalError(code, DefaultMessage(code, fe.Param()))
			continue
		}
		be.AddFieldError(FieldError{
			Field:          fe.Field(),
			Code:           code,
			Param:          fe.Param(),
			DefaultMessage: DefaultMessage(code, fe.Param()),
		})
	}
	return be
}

// DecodeJSON reads r's JSON body into dst and validates it. Malformed bodies,
// type mismatches and failed constraints are all reported as *BindError.
func DecodeJSON(r *http.Request, dst any) error {
	object := objectName(dst)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		be := &BindError{Object: object}
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			be.AddFieldError(FieldError{
				Field:          typeErr.Field,
				Code:           "typeMismatch",
				Param:          typeErr.Type.String(),
				DefaultMessage: fmt.Sprintf("must be of type %s", typeErr.Type),
			})
		case errors.Is(err, io.EOF):
			be.AddGlobalError("required", "Required request body is missing")
		default:
			be.AddGlobalError("malformed", "Malformed JSON request body")
		}
		return be
	}
	return Check(object, dst)
}

// QueryParam returns the named query parameter or a
// *MissingParameterError when it is absent or blank.
func QueryParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", &MissingParameterError{Name: name, Type: "string"}
	}
	return v, nil
}

// PathVariable returns the named route variable or a
// *MissingPathVariableError when the route did not capture it.
func PathVariable(r *http.Request, name string) (string, error) {
	v := r.PathValue(name)
	if v == "" {
		return "", &MissingPathVariableError{Name: name, Type: "string"}
	}
	return v, nil
}

// DefaultMessage returns the English message for a failed constraint.
func DefaultMessage(tag, param string) string {
	switch tag {
	case "required":
		return "must not be blank"
	case "min", "gte":
		return "must be greater than or equal to " + param
	case "max", "lte":
		return "must be less than or equal to " + param
	case "gt":
		return "must be greater than " + param
	case "lt":
		return "must be less than " + param
	case "len":
		return "length must be " + param
	case "alpha":
		return `must match "^[a-zA-Z]+$"`
	case "direction":
		return `must match "^(asc|desc)$"`
	case "oneof":
		return "must be one of [" + strings.Join(strings.Fields(param), ", ") + "]"
	case "email":
		return "must be a well-formed email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "id.not_null":
		return "must not be null"
	case "id.positive":
		return "must be greater than 0"
	case "typeMismatch":
		return "must be of type " + param
	default:
		return "is invalid"
	}
}

// constraintCode names the failed constraint. Failures of the id alias are
// split into id.not_null and id.positive.
func constraintCode(fe validator.FieldError) string {
	if fe.Tag() != "id" {
		return fe.Tag()
	}
	if fe.ActualTag() == "required" {
		return "id.not_null"
	}
	return "id.positive"
}

func runValidation(v any) (validator.ValidationErrors, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, nil
	}
	return nil, err
}

func objectName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "request"
	}
	name := t.Name()
	return strings.ToLower(name[:1]) + name[1:]
}
