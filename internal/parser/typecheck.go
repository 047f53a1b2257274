package parser

import (
	"regexp"
	"strings"

	"github.com/daydemir/ci-recovery/internal/types"
)

// prettyDiagnostic matches "src/a.ts:10:3 - error TS2307: message".
// The column is optional so "src/a.ts:10 - error TC001: message" also matches.
var prettyDiagnostic = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))? - error ([A-Za-z]+\d+): (.+)$`)

// compactDiagnostic matches tsc's non-pretty form "src/a.ts(10,3): error TS2307: message"
var compactDiagnostic = regexp.MustCompile(`^(.+?)\((\d+),(\d+)\): error ([A-Za-z]+\d+): (.+)$`)

// TypeCheckParser recognises one diagnostic per matching line
type TypeCheckParser struct{}

// Parse returns a type-error for every line carrying a located diagnostic
func (TypeCheckParser) Parse(raw string) []types.BuildError {
	var errs []types.BuildError

	for _, line := range lines(raw) {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "error") {
			continue
		}

		match := prettyDiagnostic.FindStringSubmatch(line)
		if match == nil {
			match = compactDiagnostic.FindStringSubmatch(line)
		}
		if match == nil {
			continue
		}

		errs = append(errs, types.BuildError{
			Category: types.CategoryTypeError,
			File:     match[1],
			Line:     atoi(match[2]),
			Column:   atoi(match[3]),
			Message:  strings.TrimSpace(match[5]),
			Severity: types.SeverityError,
		})
	}

	return errs
}
