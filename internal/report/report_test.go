package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/softwarewrighter/guardian/internal/model"
)

func sampleVerdict() *model.CheckVerdict {
	exitCode := 1
	return &model.CheckVerdict{
		Overall: model.OverallBlocked,
		Backend: "local",
		Model:   "qwen2.5-coder:7b",
		Units: []model.UnitOutcome{
			{
				Kind:   model.UnitScript,
				Name:   "go test ./...",
				Status: model.UnitFailed,
				Script: &model.ScriptCheckResult{
					Command:  "go test ./...",
					Status:   model.ScriptFailed,
					ExitCode: &exitCode,
					Stderr:   "FAIL: TestThing",
				},
			},
			{
				Kind:   model.UnitPolicy,
				Name:   "policy",
				Status: model.UnitWarned,
				Violations: []model.PolicyViolation{
					{RuleID: "no-todo", Severity: model.SeverityMedium, File: "main.go", Line: 4, Message: "forbidden pattern"},
				},
			},
			{
				Kind:   model.UnitReview,
				Name:   "review",
				Status: model.UnitSkipped,
			},
		},
		Duration:  1500 * time.Millisecond,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRenderTextSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleVerdict(), Options{}))

	out := buf.String()
	require.Contains(t, out, "BLOCKED")
	require.Contains(t, out, "backend: local  model: qwen2.5-coder:7b")
	require.Contains(t, out, "KIND")
	require.Contains(t, out, "DETAIL")
	require.Contains(t, out, "go test ./...")
	require.Contains(t, out, "exit 1")
	require.Contains(t, out, "skipped")
	require.Contains(t, out, "no-todo (main.go:4)")
}

func TestRenderVerboseIncludesScriptOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleVerdict(), Options{Verbose: true}))
	require.Contains(t, buf.String(), "FAIL: TestThing")
}

func TestRenderNonVerboseOmitsScriptOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleVerdict(), Options{}))
	require.NotContains(t, buf.String(), "FAIL: TestThing")
}

func TestRenderJSONRoundTrips(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleVerdict(), Options{JSON: true}))

	var decoded model.CheckVerdict
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, model.OverallBlocked, decoded.Overall)
	require.Len(t, decoded.Units, 3)
	require.Equal(t, model.UnitSkipped, decoded.Units[2].Status)
}

func TestRenderEmptyVerdict(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	verdict := &model.CheckVerdict{Overall: model.OverallPassed}
	require.NoError(t, Render(&buf, verdict, Options{}))
	require.Contains(t, buf.String(), "PASSED")
	require.Contains(t, buf.String(), "0 check(s)")
}
