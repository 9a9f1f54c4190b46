// Package pagination parses page requests from query strings, turns them
// into page descriptors and projects paged results into the wire shape.
package pagination

import (
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"libcommon/pkg/binding"
)

const objectName = "paginationRequest"

func init() {
	// Case-insensitive asc/desc.
	err := binding.Validator().RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		_, ok := ParseDirection(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(err)
	}
}

// Request is a client's page request. Nil Page and Size mean "use the
// default".
type Request struct {
	Page      *int   `json:"page" validate:"omitempty,min=0"`
	Size      *int   `json:"size" validate:"omitempty,min=1,max=100"`
	SortBy    string `json:"sortBy" validate:"omitempty,alpha"`
	Direction string `json:"direction" validate:"omitempty,direction"`
}

// Parse reads page, size, sort_by (or sortBy) and direction from the query
// string and validates them. When both spellings are present the camelCase
// key wins. Failures are returned as *binding.BindError.
func Parse(r *http.Request) (Request, error) {
	params := queryParams(r)

	var req Request
	be := &binding.BindError{Object: objectName}
	req.Page = parseInt(be, "page", params["page"])
	req.Size = parseInt(be, "size", params["size"])
	req.SortBy = params["sortBy"]
	req.Direction = params["direction"]
	if be.ErrorCount() > 0 {
		return Request{}, be
	}

	if err := binding.Check(objectName, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// queryParams folds snake_case keys onto their camelCase names. Keys are
// visited in sorted order so the result does not depend on map iteration.
func queryParams(r *http.Request) map[string]string {
	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for _, key := range slices.Sorted(maps.Keys(query)) {
		values := query[key]
		if len(values) == 0 {
			continue
		}
		name := snakeToCamel(key)
		if _, seen := params[name]; seen && name != key {
			continue
		}
		params[name] = values[0]
	}
	return params
}

func parseInt(be *binding.BindError, field, raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		be.AddFieldError(binding.FieldError{
			Field:          field,
			Code:           "typeMismatch",
			Param:          "int",
			DefaultMessage: binding.DefaultMessage("typeMismatch", "int"),
		})
		return nil
	}
	return &n
}

func snakeToCamel(key string) string {
	var sb strings.Builder
	upper := false
	for _, r := range key {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			sb.WriteString(strings.ToUpper(string(r)))
		} else {
			sb.WriteRune(r)
		}
		upper = false
	}
	return sb.String()
}
