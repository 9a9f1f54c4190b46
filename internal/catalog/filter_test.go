package catalog

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libcommon/pkg/binding"
	"libcommon/pkg/filter"
)

func TestParseListFilter(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/v1/items?name=+desk+&category=office&minPrice=10&maxPrice=20&createdAfter=2024-01-01T04:00:00%2B04:00", nil)
	f, err := ParseListFilter(r)
	if err != nil {
		t.Fatalf("ParseListFilter() error = %v", err)
	}
	if f.Name != "desk" || f.Category != "office" || *f.MinPrice != 10 || *f.MaxPrice != 20 || f.CreatedBefore != nil {
		t.Errorf("filter = %+v", f)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !f.CreatedAfter.Equal(want) || f.CreatedAfter.Location() != time.UTC {
		t.Errorf("createdAfter = %v", f.CreatedAfter)
	}

	clause, args := filter.Where(f.Spec())
	want := "WHERE (lower(name) LIKE $1 AND lower(category) = $2 AND (price >= $3 AND price <= $4) AND created_at >= $5)"
	if clause != want || len(args) != 5 {
		t.Errorf("Where() = %q %v", clause, args)
	}
}

func TestParseListFilter_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query      string
		wantFields []string
	}{
		{query: "minPrice=cheap", wantFields: []string{"minPrice"}},
		{query: "maxPrice=1.5&createdBefore=yesterday", wantFields: []string{"maxPrice", "createdBefore"}},
		{query: "minPrice=-1", wantFields: []string{"minPrice"}},
		{query: "category=home-office", wantFields: []string{"category"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			_, err := ParseListFilter(httptest.NewRequest(http.MethodGet, "/v1/items?"+tt.query, nil))
			var be *binding.BindError
			if !errors.As(err, &be) {
				t.Fatalf("expected BindError, got %v", err)
			}
			if be.Object != "listFilter" || len(be.FieldErrors) != len(tt.wantFields) {
				t.Fatalf("bind error = %+v", be)
			}
			for i, field := range tt.wantFields {
				if be.FieldErrors[i].Field != field {
					t.Errorf("field[%d] = %s, want %s", i, be.FieldErrors[i].Field, field)
				}
			}
		})
	}
}
