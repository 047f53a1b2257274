package types

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid field of a stored value
type FieldError struct {
	Field    string // e.g. "severity"
	Expected string // e.g. "one of: [error warning]"
	Actual   any
	Hint     string
}

func (e FieldError) String() string {
	return fmt.Sprintf("field %s: %s (expected %s, found %s)", e.Field, e.Hint, e.Expected, quoteActual(e.Actual))
}

// ValidationErrors collects every invalid field of a value so callers see
// all problems at once
type ValidationErrors []FieldError

// Add records an invalid field
func (v *ValidationErrors) Add(field, expected string, actual any, hint string) {
	*v = append(*v, FieldError{Field: field, Expected: expected, Actual: actual, Hint: hint})
}

// Error renders a single field inline and several fields one per line
func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return "validation error in " + v[0].String()
	}

	lines := make([]string, len(v))
	for i, e := range v {
		lines[i] = "  " + e.String()
	}
	return fmt.Sprintf("validation failed with %d errors:\n%s", len(v), strings.Join(lines, "\n"))
}

func quoteActual(actual any) string {
	switch v := actual.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case fmt.Stringer:
		return fmt.Sprintf("%q", v.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}
