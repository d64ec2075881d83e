package model

// Severity grades a finding reported by a policy rule or the LLM reviewer.
type Severity string

const (
	// SeverityLow marks advisory findings.
	SeverityLow Severity = "low"
	// SeverityMedium marks findings that should be addressed.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks findings that block the change.
	SeverityHigh Severity = "high"
)

// IsValid reports whether the severity is a known constant.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// Rank orders severities for aggregation; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
