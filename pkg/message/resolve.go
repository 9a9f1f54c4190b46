// Package message formats user-facing messages and resolves them against
// per-locale catalogs.
package message

import (
	"fmt"
	"strings"
)

const placeholder = "{}"

// Resolve substitutes each "{}" in template, left to right, with the string
// form of the next argument. Extra arguments are ignored and extra
// placeholders stay literal.
//
// When template is blank the first argument becomes the template; a single
// argument is returned verbatim. ok is false when there is nothing to format
// (blank template and no arguments, or a nil first argument with a blank
// template).
func Resolve(template string, args ...any) (string, bool) {
	blank := strings.TrimSpace(template) == ""
	noArgs := len(args) == 0 || args[0] == nil

	if blank && noArgs {
		return "", false
	}

	if blank {
		template = stringOf(args[0])
		if len(args) == 1 {
			return template, true
		}
		args = args[1:]
	} else if noArgs {
		return template, true
	}

	return bind(template, args), true
}

// Format is Resolve with the missing result rendered as "".
func Format(template string, args ...any) string {
	s, _ := Resolve(template, args...)
	return s
}

// bind fills placeholders left to right. Text that came from an argument is
// never scanned for placeholders again.
func bind(template string, args []any) string {
	var sb strings.Builder
	sb.Grow(len(template))

	rest := template
	for _, arg := range args {
		idx := strings.Index(rest, placeholder)
		if idx == -1 {
			break
		}
		sb.WriteString(rest[:idx])
		sb.WriteString(stringOf(arg))
		rest = rest[idx+len(placeholder):]
	}
	sb.WriteString(rest)

	return sb.String()
}

func stringOf(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
