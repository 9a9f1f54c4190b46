package observability

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrCode      = "code"
	attrOperation = "operation"
	attrSuccess   = "success"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String(attrPath, normalizePath(path))
}

func statusAttr(code int) attribute.KeyValue {
	// 200-299 -> 2xx, 400-499 -> 4xx, 500-599 -> 5xx
	return attribute.String(attrStatus, fmt.Sprintf("%dxx", code/100))
}

func exactStatusAttr(code int) attribute.KeyValue {
	return attribute.Int(attrStatus, code)
}

func codeAttr(code string) attribute.KeyValue {
	return attribute.String(attrCode, code)
}

func operationAttr(op string) attribute.KeyValue {
	return attribute.String(attrOperation, op)
}

func successAttr(success bool) attribute.KeyValue {
	return attribute.Bool(attrSuccess, success)
}

// normalizePath replaces numeric and UUID segments with {id}. Callers that
// know the matched route pattern should pass it instead.
func normalizePath(path string) string {
	if strings.Contains(path, "{") {
		return path
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segments[i] = "{id}"
			continue
		}
		if _, err := uuid.Parse(s); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// StatementOperation returns the lower-cased leading keyword of a SQL
// statement, e.g. "select".
func StatementOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "other"
	}
	switch op := strings.ToLower(fields[0]); op {
	case "select", "insert", "update", "delete", "with", "merge":
		return op
	default:
		return "other"
	}
}
