package gqlgateway

import (
	"fmt"
	"strconv"
	"strings"
)

// Value renders a Go value as a GraphQL literal, per spec.md §9's
// typed-query-builder requirement: strings are double-quote-escaped,
// booleans render lowercase, numerics render bare. Grounded on
// original_source/MDSSchedule.py's is_quotable_value/escape_quotes/
// is_quoted trio, generalized into one entry point so callers never
// naive-interpolate a caller-supplied value into a query string.
func Value(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return quoteString(t)
	case fmt.Stringer:
		return quoteString(t.String())
	default:
		return quoteString(fmt.Sprintf("%v", t))
	}
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `\"`))
	b.WriteByte('"')
	return b.String()
}

// Field is one `key: value` pair of a GraphQL `_set`/input object. Callers
// pass an ordered []Field rather than a map, since map-iteration order is
// not guaranteed and stable query text matters (tests, logging).
type Field struct {
	Name  string
	Value interface{}
}

// RenderFields joins fields as "name: value,\n" lines, matching the
// original's additional_args accumulation.
func RenderFields(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(Value(f.Value))
		b.WriteString(",\n")
	}
	return b.String()
}
