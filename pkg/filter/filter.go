// Package filter builds optional query conditions that render as
// parameterized SQL and also evaluate against values in memory, so one
// filter serves both a database store and an in-process one.
//
// Constructors return nil when their input is absent (nil pointer, blank
// string, empty slice). A nil *Spec places no restriction and is dropped by
// And and Or.
package filter

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Spec is a condition over T.
type Spec[T any] struct {
	render func(a *args) string
	match  func(T) bool
}

// Field binds a column to the accessor that reads the same value from T.
type Field[T, V any] struct {
	Column string
	Get    func(T) V
}

// Match reports whether v satisfies s. A nil spec matches everything.
func (s *Spec[T]) Match(v T) bool {
	return s == nil || s.match(v)
}

// Where renders s as a WHERE clause. Placeholders are numbered from $1 and
// args holds their values in order. A nil spec yields "" and no args.
func Where[T any](s *Spec[T]) (clause string, values []any) {
	if s == nil {
		return "", nil
	}
	a := &args{}
	return "WHERE " + s.render(a), a.values
}

type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// And matches when every non-nil spec matches.
func And[T any](specs ...*Spec[T]) *Spec[T] {
	return combine(" AND ", true, specs)
}

// Or matches when any non-nil spec matches.
func Or[T any](specs ...*Spec[T]) *Spec[T] {
	return combine(" OR ", false, specs)
}

func combine[T any](op string, all bool, specs []*Spec[T]) *Spec[T] {
	specs = slices.DeleteFunc(slices.Clone(specs), func(s *Spec[T]) bool { return s == nil })
	switch len(specs) {
	case 0:
		return nil
	case 1:
		return specs[0]
	}
	return &Spec[T]{
		render: func(a *args) string {
			parts := make([]string, len(specs))
			for i, s := range specs {
				parts[i] = s.render(a)
			}
			return "(" + strings.Join(parts, op) + ")"
		},
		match: func(v T) bool {
			for _, s := range specs {
				if s.match(v) != all {
					return !all
				}
			}
			return all
		},
	}
}

// Not negates s. Not(nil) is nil.
func Not[T any](s *Spec[T]) *Spec[T] {
	if s == nil {
		return nil
	}
	return &Spec[T]{
		render: func(a *args) string { return "NOT (" + s.render(a) + ")" },
		match:  func(v T) bool { return !s.match(v) },
	}
}

// AlwaysTrue matches everything, unlike nil it still renders a clause.
func AlwaysTrue[T any]() *Spec[T] {
	return &Spec[T]{
		render: func(*args) string { return "TRUE" },
		match:  func(T) bool { return true },
	}
}

// AlwaysFalse matches nothing.
func AlwaysFalse[T any]() *Spec[T] {
	return &Spec[T]{
		render: func(*args) string { return "FALSE" },
		match:  func(T) bool { return false },
	}
}

// Equal matches when the field equals *value.
func Equal[T any, V comparable](value *V, f Field[T, V]) *Spec[T] {
	if value == nil {
		return nil
	}
	want := *value
	return &Spec[T]{
		render: func(a *args) string { return f.Column + " = " + a.add(want) },
		match:  func(v T) bool { return f.Get(v) == want },
	}
}

// NotEqual matches when the field differs from *value.
func NotEqual[T any, V comparable](value *V, f Field[T, V]) *Spec[T] {
	return Not(Equal(value, f))
}

// EqualFold matches strings equal to value ignoring case.
func EqualFold[T any](value string, f Field[T, string]) *Spec[T] {
	return like(value, f, "", "")
}

// NotEqualFold matches strings that differ from value ignoring case.
func NotEqualFold[T any](value string, f Field[T, string]) *Spec[T] {
	return Not(EqualFold(value, f))
}

// Contains matches strings containing value ignoring case.
func Contains[T any](value string, f Field[T, string]) *Spec[T] {
	return like(value, f, "%", "%")
}

// StartsWith matches strings starting with value ignoring case.
func StartsWith[T any](value string, f Field[T, string]) *Spec[T] {
	return like(value, f, "", "%")
}

// EndsWith matches strings ending with value ignoring case.
func EndsWith[T any](value string, f Field[T, string]) *Spec[T] {
	return like(value, f, "%", "")
}

func like[T any](value string, f Field[T, string], prefix, suffix string) *Spec[T] {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	lower := strings.ToLower(value)
	if prefix == "" && suffix == "" {
		return &Spec[T]{
			render: func(a *args) string { return "lower(" + f.Column + ") = " + a.add(lower) },
			match:  func(v T) bool { return strings.ToLower(f.Get(v)) == lower },
		}
	}
	pattern := prefix + escapeLike(lower) + suffix
	return &Spec[T]{
		render: func(a *args) string { return "lower(" + f.Column + ") LIKE " + a.add(pattern) },
		match: func(v T) bool {
			s := strings.ToLower(f.Get(v))
			switch {
			case prefix != "" && suffix != "":
				return strings.Contains(s, lower)
			case prefix != "":
				return strings.HasSuffix(s, lower)
			default:
				return strings.HasPrefix(s, lower)
			}
		},
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// GreaterThan matches when the field is strictly greater than *value.
func GreaterThan[T any, V cmp.Ordered](value *V, f Field[T, V]) *Spec[T] {
	return compare(value, f, " > ", func(c int) bool { return c > 0 })
}

// LessThan matches when the field is strictly less than *value.
func LessThan[T any, V cmp.Ordered](value *V, f Field[T, V]) *Spec[T] {
	return compare(value, f, " < ", func(c int) bool { return c < 0 })
}

// AtLeast matches when the field is greater than or equal to *value.
func AtLeast[T any, V cmp.Ordered](value *V, f Field[T, V]) *Spec[T] {
	return compare(value, f, " >= ", func(c int) bool { return c >= 0 })
}

// AtMost matches when the field is less than or equal to *value.
func AtMost[T any, V cmp.Ordered](value *V, f Field[T, V]) *Spec[T] {
	return compare(value, f, " <= ", func(c int) bool { return c <= 0 })
}

// Between matches min <= field <= max. Either bound may be nil, leaving
// that side open.
func Between[T any, V cmp.Ordered](lo, hi *V, f Field[T, V]) *Spec[T] {
	return And(AtLeast(lo, f), AtMost(hi, f))
}

func compare[T any, V cmp.Ordered](value *V, f Field[T, V], op string, ok func(int) bool) *Spec[T] {
	if value == nil {
		return nil
	}
	bound := *value
	return &Spec[T]{
		render: func(a *args) string { return f.Column + op + a.add(bound) },
		match:  func(v T) bool { return ok(cmp.Compare(f.Get(v), bound)) },
	}
}

// After matches times at or after *t.
func After[T any](t *time.Time, f Field[T, time.Time]) *Spec[T] {
	return timeCompare(t, f, " >= ", func(c int) bool { return c >= 0 })
}

// Before matches times at or before *t.
func Before[T any](t *time.Time, f Field[T, time.Time]) *Spec[T] {
	return timeCompare(t, f, " <= ", func(c int) bool { return c <= 0 })
}

// TimeBetween matches start <= field <= end with either bound optional.
func TimeBetween[T any](start, end *time.Time, f Field[T, time.Time]) *Spec[T] {
	return And(After(start, f), Before(end, f))
}

func timeCompare[T any](t *time.Time, f Field[T, time.Time], op string, ok func(int) bool) *Spec[T] {
	if t == nil {
		return nil
	}
	bound := *t
	return &Spec[T]{
		render: func(a *args) string { return f.Column + op + a.add(bound) },
		match:  func(v T) bool { return ok(f.Get(v).Compare(bound)) },
	}
}

// Is matches a boolean field against *value.
func Is[T any](value *bool, f Field[T, bool]) *Spec[T] {
	if value == nil {
		return nil
	}
	want := *value
	return &Spec[T]{
		render: func(*args) string {
			if want {
				return f.Column + " IS TRUE"
			}
			return f.Column + " IS FALSE"
		},
		match: func(v T) bool { return f.Get(v) == want },
	}
}

// In matches when the field is one of values.
func In[T any, V comparable](values []V, f Field[T, V]) *Spec[T] {
	if len(values) == 0 {
		return nil
	}
	set := slices.Clone(values)
	return &Spec[T]{
		render: func(a *args) string {
			placeholders := make([]string, len(set))
			for i, v := range set {
				placeholders[i] = a.add(v)
			}
			return f.Column + " IN (" + strings.Join(placeholders, ", ") + ")"
		},
		match: func(v T) bool { return slices.Contains(set, f.Get(v)) },
	}
}

// NotIn matches when the field is none of values.
func NotIn[T any, V comparable](values []V, f Field[T, V]) *Spec[T] {
	return Not(In(values, f))
}
