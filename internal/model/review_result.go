package model

// ReviewResult is the constrained JSON document the LLM reviewer must
// produce. FailOpen is set by the reviewer, never by the model, when both
// parse attempts failed and the safe default was synthesized in its place.
type ReviewResult struct {
	OKToProceed            bool     `json:"ok_to_proceed"`
	Severity               Severity `json:"severity"`
	Reasons                []string `json:"reasons"`
	FileContextSuggestions []string `json:"file_context_suggestions"`

	FailOpen bool `json:"fail_open,omitempty"`
}
