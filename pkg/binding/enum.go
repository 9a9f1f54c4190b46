package binding

import (
	"fmt"
	"strings"
)

// EnumOf returns the value whose name matches name ignoring case.
func EnumOf[T ~string](name string, values ...T) (T, bool) {
	for _, v := range values {
		if strings.EqualFold(string(v), name) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ParseEnum is EnumOf for callers that need an error. The error lists the
// accepted names.
func ParseEnum[T ~string](name string, values ...T) (T, error) {
	if v, ok := EnumOf(name, values...); ok {
		return v, nil
	}
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	var zero T
	return zero, fmt.Errorf("unknown constant %q, expected one of [%s]", name, strings.Join(names, ", "))
}
