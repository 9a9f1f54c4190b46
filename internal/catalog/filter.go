package catalog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"libcommon/pkg/binding"
	"libcommon/pkg/filter"
)

// ListFilter narrows GET /v1/items. Zero fields place no restriction.
type ListFilter struct {
	Name          string     `json:"name" validate:"omitempty,max=100"`
	Category      string     `json:"category" validate:"omitempty,alpha"`
	MinPrice      *int64     `json:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice      *int64     `json:"maxPrice" validate:"omitempty,gte=0"`
	CreatedAfter  *time.Time `json:"createdAfter"`
	CreatedBefore *time.Time `json:"createdBefore"`
}

var (
	nameField     = filter.Field[Item, string]{Column: "name", Get: func(i Item) string { return i.Name }}
	categoryField = filter.Field[Item, string]{Column: "category", Get: func(i Item) string { return i.Category }}
	priceField    = filter.Field[Item, int64]{Column: "price", Get: func(i Item) int64 { return i.Price }}
	createdField  = filter.Field[Item, time.Time]{Column: "created_at", Get: func(i Item) time.Time { return i.CreatedAt }}
)

// Spec turns the filter into a condition both stores understand. Name
// matches as a substring and category exactly, both ignoring case.
func (f ListFilter) Spec() *filter.Spec[Item] {
	return filter.And(
		filter.Contains(f.Name, nameField),
		filter.EqualFold(f.Category, categoryField),
		filter.Between(f.MinPrice, f.MaxPrice, priceField),
		filter.TimeBetween(f.CreatedAfter, f.CreatedBefore, createdField),
	)
}

// ParseListFilter reads name, category, minPrice, maxPrice, createdAfter and
// createdBefore from the query string. Times are RFC 3339. Failures are
// returned as *binding.BindError.
func ParseListFilter(r *http.Request) (ListFilter, error) {
	const object = "listFilter"
	q := r.URL.Query()
	be := &binding.BindError{Object: object}

	f := ListFilter{
		Name:          strings.TrimSpace(q.Get("name")),
		Category:      strings.TrimSpace(q.Get("category")),
		MinPrice:      parseInt64(be, "minPrice", q.Get("minPrice")),
		MaxPrice:      parseInt64(be, "maxPrice", q.Get("maxPrice")),
		CreatedAfter:  parseTime(be, "createdAfter", q.Get("createdAfter")),
		CreatedBefore: parseTime(be, "createdBefore", q.Get("createdBefore")),
	}
	if be.ErrorCount() > 0 {
		return ListFilter{}, be
	}
	if err := binding.Check(object, f); err != nil {
		return ListFilter{}, err
	}
	return f, nil
}

func parseInt64(be *binding.BindError, field, raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		typeMismatch(be, field, "long")
		return nil
	}
	return &n
}

func parseTime(be *binding.BindError, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		typeMismatch(be, field, "date-time")
		return nil
	}
	t = t.UTC()
	return &t
}

func typeMismatch(be *binding.BindError, field, typ string) {
	be.AddFieldError(binding.FieldError{
		Field:          field,
		Code:           "typeMismatch",
		Param:          typ,
		DefaultMessage: binding.DefaultMessage("typeMismatch", typ),
	})
}
