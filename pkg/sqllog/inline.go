package sqllog

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// inlineParams substitutes parameter values into raw. An INSERT ... VALUES
// with several parameter sets becomes one statement with several tuples;
// anything else is repeated per set and joined with " ; ".
func inlineParams(raw string, queries []QueryInfo) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(strings.TrimSpace(lower), "insert") {
		if idx := strings.Index(lower, "values"); idx >= 0 {
			prefix := raw[:idx+len("values")]
			var tuples []string
			for _, q := range queries {
				for _, set := range q.Args {
					if len(set) == 0 {
						continue
					}
					values := make([]string, 0, len(set))
					for _, v := range set {
						values = append(values, formatValue(v))
					}
					tuples = append(tuples, "("+strings.Join(values, ", ")+")")
				}
			}
			if len(tuples) > 0 {
				return normalize(prefix) + " " + strings.Join(tuples, ", ") + ";"
			}
		}
	}

	var filled []string
	for _, q := range queries {
		for _, set := range q.Args {
			if len(set) == 0 {
				continue
			}
			filled = append(filled, bindParams(q.SQL, set))
		}
	}
	if len(filled) > 0 {
		return normalize(strings.Join(filled, " ; ")) + ";"
	}
	return normalize(raw)
}

// bindParams replaces "?" placeholders in order and "$n" placeholders by
// position. Quoted literals are left alone, as are placeholders without a
// matching argument.
func bindParams(sql string, args []any) string {
	var sb strings.Builder
	next := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			sb.WriteByte(c)
		case inQuote:
			sb.WriteByte(c)
		case c == '?':
			if next < len(args) {
				sb.WriteString(formatValue(args[next]))
				next++
			} else {
				sb.WriteByte(c)
			}
		case c == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(sql[i+1 : j])
			if err != nil || n < 1 || n > len(args) {
				sb.WriteByte(c)
				continue
			}
			sb.WriteString(formatValue(args[n-1]))
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func hasPlaceholder(sql string) bool {
	if strings.Contains(sql, "?") {
		return true
	}
	for i := 0; i+1 < len(sql); i++ {
		if sql[i] == '$' && sql[i+1] >= '1' && sql[i+1] <= '9' {
			return true
		}
	}
	return false
}

// formatValue renders a parameter as a SQL literal: numbers bare, nil as
// null, everything else single-quoted with quotes escaped.
func formatValue(v any) string {
	if valuer, ok := v.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			v = dv
		}
	}
	if v == nil {
		return "null"
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(rv.Interface())
	}

	var s string
	switch x := rv.Interface().(type) {
	case []byte:
		s = string(x)
	case time.Time:
		s = x.Format(time.RFC3339Nano)
	default:
		s = fmt.Sprint(x)
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
