package review

import (
	"fmt"
	"strings"
)

const systemInstruction = `You are Guardian, a pre-commit reviewer enforcing development process rules.

Output ONLY valid JSON conforming to the schema below. No prose, no markdown,
no explanation outside the JSON.

Judge whether the change below complies with the stated rules. Cite concrete
reasons; if you cannot judge reliably, say so in a reason rather than guessing.
`

const outputSchema = `Output schema (JSON only):
{
  "ok_to_proceed": true,
  "severity": "low|medium|high",
  "reasons": ["..."],
  "file_context_suggestions": ["relative/path.go"]
}
`

// buildPrompt assembles the evaluation request: fixed reviewer role, rules
// text, optional task description, then the change payload.
func buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(systemInstruction)
	sb.WriteString("\n")
	sb.WriteString(outputSchema)

	sb.WriteString("\n## Rules\n\n")
	if strings.TrimSpace(req.RulesText) != "" {
		sb.WriteString(req.RulesText)
	} else {
		sb.WriteString("No project-specific rules were supplied; apply general code review judgement.\n")
	}

	if strings.TrimSpace(req.Task) != "" {
		sb.WriteString("\n## Task\n\n")
		sb.WriteString(req.Task)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Change\n\n")
	sb.WriteString(req.Payload)
	sb.WriteString("\n\nProduce the JSON verdict now.")

	return sb.String()
}

// buildRetryPrompt includes the previous reply and the parse failure so the
// model has full context for its single correction attempt.
func buildRetryPrompt(original, previousReply string, parseErr error) string {
	var sb strings.Builder
	sb.WriteString(original)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousReply)
	fmt.Fprintf(&sb, "\n\nThat response was invalid: %v\n", parseErr)
	sb.WriteString("Output only the corrected JSON conforming to the schema.")
	return sb.String()
}
