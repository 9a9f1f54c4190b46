package pagination

import (
	"strings"

	"libcommon/pkg/binding"
)

// Defaults applied when a request leaves page or size unset.
const (
	DefaultPage = 0
	DefaultSize = 10
)

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort orders results by one field.
type Sort struct {
	Field     string
	Direction Direction
}

// Pageable describes one page of a larger result set. A nil Sort means
// unsorted.
type Pageable struct {
	Page int
	Size int
	Sort *Sort
}

// ToPageable resolves the request against the allowed sort fields, in
// order of preference. With no allowed fields the result is unsorted; an
// unknown or blank SortBy falls back to the first allowed field. A blank
// direction sorts descending.
func (r Request) ToPageable(allowedSortFields ...string) Pageable {
	p := Pageable{Page: DefaultPage, Size: DefaultSize}
	if r.Page != nil {
		p.Page = *r.Page
	}
	if r.Size != nil {
		p.Size = *r.Size
	}
	p.Sort = resolveSort(r, allowedSortFields)
	return p
}

func resolveSort(r Request, allowed []string) *Sort {
	if len(allowed) == 0 {
		return nil
	}

	field := allowed[0]
	sortBy := strings.TrimSpace(r.SortBy)
	for _, a := range allowed {
		if sortBy != "" && a == sortBy {
			field = sortBy
			break
		}
	}
	return &Sort{Field: field, Direction: resolveDirection(r.Direction)}
}

func resolveDirection(direction string) Direction {
	if d, ok := ParseDirection(direction); ok {
		return d
	}
	if strings.TrimSpace(direction) == "" {
		return Desc
	}
	return Asc
}

// ParseDirection matches asc or desc in any case.
func ParseDirection(s string) (Direction, bool) {
	return binding.EnumOf(strings.TrimSpace(s), Asc, Desc)
}

// Sorted reports whether a sort is applied.
func (p Pageable) Sorted() bool {
	return p.Sort != nil
}

// Offset returns the number of rows to skip.
func (p Pageable) Offset() int64 {
	return int64(p.Page) * int64(p.Size)
}

// Limit returns the page size.
func (p Pageable) Limit() int {
	return p.Size
}

// OrderBy renders an ORDER BY clause, mapping sort fields to columns. Fields
// missing from columns are not rendered, so the result is always safe to
// concatenate into SQL.
func (p Pageable) OrderBy(columns map[string]string) string {
	if p.Sort == nil {
		return ""
	}
	column, ok := columns[p.Sort.Field]
	if !ok {
		return ""
	}
	return "ORDER BY " + column + " " + string(p.Sort.Direction)
}
