package types

// Category classifies a BuildError. The set is closed: anything a parser
// does not recognise never becomes a BuildError at all.
type Category string

const (
	// CategoryTypeError is a diagnostic reported by the type checker
	CategoryTypeError Category = "type-error"
	// CategoryLintIssue is a line reported by the linter
	CategoryLintIssue Category = "lint-issue"
	// CategoryDependencyIssue is a dependency resolution failure
	CategoryDependencyIssue Category = "dependency-issue"
	// CategoryConfigurationIssue is a compilation/packaging failure not attributable to the checker or linter
	CategoryConfigurationIssue Category = "configuration-issue"
)

// IsValid checks if a category is valid
func (c Category) IsValid() bool {
	for _, valid := range AllCategories() {
		if c == valid {
			return true
		}
	}
	return false
}

// AllCategories returns all valid category values
func AllCategories() []Category {
	return []Category{
		CategoryTypeError, CategoryLintIssue,
		CategoryDependencyIssue, CategoryConfigurationIssue,
	}
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Severity represents how serious a BuildError is.
// Warnings never block verification.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IsValid checks if a severity value is valid
func (s Severity) IsValid() bool {
	for _, valid := range AllSeverities() {
		if s == valid {
			return true
		}
	}
	return false
}

// AllSeverities returns all valid severity values
func AllSeverities() []Severity {
	return []Severity{SeverityError, SeverityWarning}
}

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}
