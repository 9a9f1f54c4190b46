package filter

import (
	"reflect"
	"testing"
	"time"
)

type row struct {
	Name    string
	Price   int64
	Active  bool
	Created time.Time
}

var (
	nameField    = Field[row, string]{Column: "name", Get: func(r row) string { return r.Name }}
	priceField   = Field[row, int64]{Column: "price", Get: func(r row) int64 { return r.Price }}
	activeField  = Field[row, bool]{Column: "active", Get: func(r row) bool { return r.Active }}
	createdField = Field[row, time.Time]{Column: "created_at", Get: func(r row) time.Time { return r.Created }}
)

func ptr[V any](v V) *V { return &v }

func TestAbsentInputIsNil(t *testing.T) {
	t.Parallel()
	specs := map[string]*Spec[row]{
		"equal":        Equal(nil, priceField),
		"equal fold":   EqualFold("  ", nameField),
		"contains":     Contains("", nameField),
		"starts with":  StartsWith("", nameField),
		"ends with":    EndsWith("", nameField),
		"greater than": GreaterThan(nil, priceField),
		"between":      Between(nil, nil, priceField),
		"time between": TimeBetween(nil, nil, createdField),
		"is":           Is(nil, activeField),
		"in":           In(nil, priceField),
		"not in":       NotIn([]int64{}, priceField),
		"and":          And(Contains("", nameField), Equal(nil, priceField)),
		"or":           Or[row](),
	}
	for name, s := range specs {
		if s != nil {
			t.Errorf("%s: expected nil spec", name)
		}
		if clause, args := Where(s); clause != "" || args != nil {
			t.Errorf("%s: Where = %q %v", name, clause, args)
		}
		if !s.Match(row{}) {
			t.Errorf("%s: nil spec must match", name)
		}
	}
}

func TestWhere(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		spec       *Spec[row]
		wantClause string
		wantArgs   []any
	}{
		{
			name:       "equal",
			spec:       Equal(ptr(int64(5)), priceField),
			wantClause: "WHERE price = $1",
			wantArgs:   []any{int64(5)},
		},
		{
			name:       "equal fold lowers both sides",
			spec:       EqualFold("Desk", nameField),
			wantClause: "WHERE lower(name) = $1",
			wantArgs:   []any{"desk"},
		},
		{
			name:       "contains escapes wildcards",
			spec:       Contains("50%_off", nameField),
			wantClause: "WHERE lower(name) LIKE $1",
			wantArgs:   []any{`%50\%\_off%`},
		},
		{
			name:       "starts with",
			spec:       StartsWith("Ch", nameField),
			wantClause: "WHERE lower(name) LIKE $1",
			wantArgs:   []any{"ch%"},
		},
		{
			name:       "one sided between",
			spec:       Between(ptr(int64(10)), nil, priceField),
			wantClause: "WHERE price >= $1",
			wantArgs:   []any{int64(10)},
		},
		{
			name:       "between",
			spec:       Between(ptr(int64(10)), ptr(int64(20)), priceField),
			wantClause: "WHERE (price >= $1 AND price <= $2)",
			wantArgs:   []any{int64(10), int64(20)},
		},
		{
			name:       "in numbers placeholders in order",
			spec:       And(Contains("a", nameField), In([]int64{1, 2}, priceField)),
			wantClause: "WHERE (lower(name) LIKE $1 AND price IN ($2, $3))",
			wantArgs:   []any{"%a%", int64(1), int64(2)},
		},
		{
			name:       "not in",
			spec:       NotIn([]int64{3}, priceField),
			wantClause: "WHERE NOT (price IN ($1))",
			wantArgs:   []any{int64(3)},
		},
		{
			name:       "or",
			spec:       Or(Is(ptr(true), activeField), After(&day, createdField)),
			wantClause: "WHERE (active IS TRUE OR created_at >= $1)",
			wantArgs:   []any{day},
		},
		{
			name:       "always false",
			spec:       AlwaysFalse[row](),
			wantClause: "WHERE FALSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clause, args := Where(tt.spec)
			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	r := row{Name: "Oak Desk", Price: 150, Active: true, Created: day}

	tests := []struct {
		name string
		spec *Spec[row]
		want bool
	}{
		{"equal fold", EqualFold("oak desk", nameField), true},
		{"not equal fold", NotEqualFold("OAK DESK", nameField), false},
		{"contains", Contains("K D", nameField), true},
		{"contains literal percent", Contains("%", nameField), false},
		{"starts with", StartsWith("oak", nameField), true},
		{"ends with", EndsWith("oak", nameField), false},
		{"greater than", GreaterThan(ptr(int64(150)), priceField), false},
		{"less than", LessThan(ptr(int64(151)), priceField), true},
		{"between inclusive", Between(ptr(int64(150)), ptr(int64(150)), priceField), true},
		{"between outside", Between(ptr(int64(1)), ptr(int64(100)), priceField), false},
		{"not equal", NotEqual(ptr(int64(150)), priceField), false},
		{"in", In([]int64{100, 150}, priceField), true},
		{"not in", NotIn([]int64{100, 150}, priceField), false},
		{"is false", Is(ptr(false), activeField), false},
		{"before", Before(ptr(day.Add(-time.Second)), createdField), false},
		{"time between", TimeBetween(&day, ptr(day.Add(time.Hour)), createdField), true},
		{"and short circuits", And(Contains("desk", nameField), AlwaysFalse[row]()), false},
		{"or", Or(AlwaysFalse[row](), Contains("desk", nameField)), true},
		{"always true", AlwaysTrue[row](), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.spec.Match(r); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
