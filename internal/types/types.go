package types

import (
	"fmt"
	"time"
)

// BuildError is a single problem detected in analysis output
type BuildError struct {
	Category Category `json:"category"`
	File     string   `json:"file,omitempty"`   // Empty for whole-project errors
	Line     int      `json:"line,omitempty"`   // 1-based, 0 when absent
	Column   int      `json:"column,omitempty"` // 1-based, 0 when absent
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// HasLocation reports whether the error points at a file
func (e BuildError) HasLocation() bool {
	return e.File != ""
}

// Location renders "file:line", or just the file when no line is known
func (e BuildError) Location() string {
	if e.File == "" {
		return ""
	}
	if e.Line <= 0 {
		return e.File
	}
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

// IsBlocking reports whether the error counts toward attempt failure
func (e BuildError) IsBlocking() bool {
	return e.Severity == SeverityError
}

// Validate ensures the build error is well formed
func (e *BuildError) Validate() error {
	var errs ValidationErrors

	if !e.Category.IsValid() {
		errs.Add("category", fmt.Sprintf("one of: %v", AllCategories()), e.Category, "use a known category")
	}
	if !e.Severity.IsValid() {
		errs.Add("severity", fmt.Sprintf("one of: %v", AllSeverities()), e.Severity, "use error or warning")
	}
	if e.Message == "" {
		errs.Add("message", "non-empty string", e.Message, "message is required")
	}
	if e.Line < 0 {
		errs.Add("line", "0 or a positive line number", e.Line, "line numbers are 1-based")
	}
	if e.Line > 0 && e.File == "" {
		errs.Add("line", "no line without a file", e.Line, "set file or clear line")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RecoveryAttempt is one diagnose, remediate and verify cycle
type RecoveryAttempt struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Errors    []BuildError `json:"errors"`  // Detection order: type-check, lint, build, dependency check
	Actions   []string     `json:"actions"` // Applied or attempted-and-failed remediations
	Success   bool         `json:"success"`
	Duration  int64        `json:"duration"`           // Milliseconds
	Revision  string       `json:"revision,omitempty"` // Checkout HEAD at the time of the attempt
}

// BlockingErrors counts errors with error severity
func (a *RecoveryAttempt) BlockingErrors() int {
	n := 0
	for _, e := range a.Errors {
		if e.IsBlocking() {
			n++
		}
	}
	return n
}

// Validate ensures the attempt is well formed before it is stored
func (a *RecoveryAttempt) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("attempt.id: field is required")
	}
	if a.Timestamp.IsZero() {
		return fmt.Errorf("attempt.timestamp: field is required")
	}
	if a.Duration < 0 {
		return fmt.Errorf("attempt.duration: must not be negative")
	}
	for i := range a.Errors {
		if err := a.Errors[i].Validate(); err != nil {
			return fmt.Errorf("attempt.errors[%d]: %w", i, err)
		}
	}
	return nil
}

// RecoveryStats is a read-only aggregate over recorded attempts
type RecoveryStats struct {
	TotalAttempts   int      `json:"totalAttempts"`
	SuccessRate     float64  `json:"successRate"`
	AverageDuration float64  `json:"averageDuration"` // Milliseconds
	CommonErrors    []string `json:"commonErrors"`
}
