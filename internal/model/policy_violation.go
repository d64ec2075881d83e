package model

// PolicyViolation is one finding produced by the static policy pass.
// Violations appear in rule declaration order.
type PolicyViolation struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}
