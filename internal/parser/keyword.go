package parser

import (
	"strings"

	"github.com/daydemir/ci-recovery/internal/types"
)

// LintParser emits a lint-issue for every line mentioning "error" or "warning"
type LintParser struct{}

// Parse returns one lint-issue per matching line
func (LintParser) Parse(raw string) []types.BuildError {
	var errs []types.BuildError

	for _, line := range lines(raw) {
		hasError := strings.Contains(line, "error")
		if !hasError && !strings.Contains(line, "warning") {
			continue
		}

		severity := types.SeverityWarning
		if hasError {
			severity = types.SeverityError
		}

		errs = append(errs, types.BuildError{
			Category: types.CategoryLintIssue,
			Message:  strings.TrimSpace(line),
			Severity: severity,
		})
	}

	return errs
}

// BuildParser catches compilation/packaging failures from the full build
type BuildParser struct{}

// Parse returns a configuration-issue for lines containing ERROR or Failed
func (BuildParser) Parse(raw string) []types.BuildError {
	var errs []types.BuildError

	for _, line := range lines(raw) {
		if !strings.Contains(line, "ERROR") && !strings.Contains(line, "Failed") {
			continue
		}
		errs = append(errs, types.BuildError{
			Category: types.CategoryConfigurationIssue,
			Message:  strings.TrimSpace(line),
			Severity: types.SeverityError,
		})
	}

	return errs
}

// dependencyMarkers are substrings package managers print for broken installs
var dependencyMarkers = []string{
	"ERESOLVE",
	"missing:",
	"invalid:",
	"UNMET",
	"Cannot resolve dependency",
}

// DependencyParser reads the output of a dependency check such as "npm ls --all"
type DependencyParser struct{}

// Parse returns a dependency-issue for each line with a known marker
func (DependencyParser) Parse(raw string) []types.BuildError {
	var errs []types.BuildError

	for _, line := range lines(raw) {
		for _, marker := range dependencyMarkers {
			if strings.Contains(line, marker) {
				errs = append(errs, types.BuildError{
					Category: types.CategoryDependencyIssue,
					Message:  strings.TrimSpace(line),
					Severity: types.SeverityError,
				})
				break
			}
		}
	}

	return errs
}
