package review

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/softwarewrighter/guardian/internal/model"
)

// fenceRe matches a markdown code fence block with an optional language tag
// and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches an orphaned opening fence, left behind when the reply
// was truncated before the closing fence.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes the code fences models sometimes wrap around
// JSON output.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// wireResult mirrors model.ReviewResult with pointer fields so missing
// required keys are distinguishable from zero values.
type wireResult struct {
	OKToProceed            *bool           `json:"ok_to_proceed"`
	Severity               *model.Severity `json:"severity"`
	Reasons                []string        `json:"reasons"`
	FileContextSuggestions []string        `json:"file_context_suggestions"`
}

// parseResult performs the strict schema parse: valid JSON, both required
// fields present, severity within the enum. Anything less is a parse
// failure feeding the retry contract, never a result.
func parseResult(raw string) (*model.ReviewResult, error) {
	raw = stripMarkdownFences(raw)

	var wire wireResult
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	if wire.OKToProceed == nil {
		return nil, fmt.Errorf("missing required field ok_to_proceed")
	}
	if wire.Severity == nil {
		return nil, fmt.Errorf("missing required field severity")
	}
	if !wire.Severity.IsValid() {
		return nil, fmt.Errorf("invalid severity %q", *wire.Severity)
	}

	return &model.ReviewResult{
		OKToProceed:            *wire.OKToProceed,
		Severity:               *wire.Severity,
		Reasons:                wire.Reasons,
		FileContextSuggestions: wire.FileContextSuggestions,
	}, nil
}
