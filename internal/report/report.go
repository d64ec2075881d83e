// Package report renders a check verdict for people and for scripts. The
// engine hands over an immutable verdict; everything about presentation
// lives here.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/softwarewrighter/guardian/internal/model"
)

// Options select the output format.
type Options struct {
	JSON    bool
	Verbose bool
	Color   bool
}

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render writes the verdict to w in the selected format.
func Render(w io.Writer, verdict *model.CheckVerdict, opts Options) error {
	if opts.JSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(verdict)
	}
	return renderText(w, verdict, opts)
}

func renderText(w io.Writer, verdict *model.CheckVerdict, opts Options) error {
	fmt.Fprintf(w, "%s  %d check(s) in %s\n",
		overallLabel(verdict.Overall, opts.Color),
		len(verdict.Units),
		verdict.Duration.Round(time.Millisecond))
	if verdict.Backend != "" {
		line := fmt.Sprintf("backend: %s  model: %s", verdict.Backend, verdict.Model)
		if opts.Color {
			line = dimStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
	if len(verdict.Units) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "KIND\tNAME\tSTATUS\tDETAIL")
	for _, unit := range verdict.Units {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			unit.Kind, unit.Name, statusLabel(unit.Status, opts.Color), unitDetail(unit))
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	for _, unit := range verdict.Units {
		renderFindings(w, unit, opts)
	}
	return nil
}

func renderFindings(w io.Writer, unit model.UnitOutcome, opts Options) {
	for _, v := range unit.Violations {
		location := v.File
		if v.Line > 0 {
			location = fmt.Sprintf("%s:%d", v.File, v.Line)
		}
		if location != "" {
			location = " (" + location + ")"
		}
		fmt.Fprintf(w, "\n[%s] %s%s: %s", v.Severity, v.RuleID, location, v.Message)
	}
	if unit.Review != nil {
		for _, reason := range unit.Review.Reasons {
			fmt.Fprintf(w, "\n[%s] review: %s", unit.Review.Severity, reason)
		}
		if opts.Verbose {
			for _, suggestion := range unit.Review.FileContextSuggestions {
				fmt.Fprintf(w, "\nreview suggests context: %s", suggestion)
			}
		}
	}
	if opts.Verbose && unit.Script != nil && unit.Status != model.UnitPassed {
		if out := strings.TrimSpace(unit.Script.Stdout); out != "" {
			fmt.Fprintf(w, "\n--- stdout: %s\n%s", unit.Name, out)
		}
		if errOut := strings.TrimSpace(unit.Script.Stderr); errOut != "" {
			fmt.Fprintf(w, "\n--- stderr: %s\n%s", unit.Name, errOut)
		}
	}
	if hasFindings(unit, opts) {
		fmt.Fprintln(w)
	}
}

func hasFindings(unit model.UnitOutcome, opts Options) bool {
	if len(unit.Violations) > 0 {
		return true
	}
	if unit.Review != nil && len(unit.Review.Reasons) > 0 {
		return true
	}
	return opts.Verbose && unit.Script != nil && unit.Status != model.UnitPassed &&
		(strings.TrimSpace(unit.Script.Stdout) != "" || strings.TrimSpace(unit.Script.Stderr) != "")
}

func overallLabel(status model.OverallStatus, color bool) string {
	label := strings.ToUpper(string(status))
	if !color {
		return label
	}
	switch status {
	case model.OverallPassed:
		return passedStyle.Render(label)
	case model.OverallWarning:
		return warningStyle.Render(label)
	default:
		return blockedStyle.Render(label)
	}
}

func statusLabel(status model.UnitStatus, color bool) string {
	if !color {
		return string(status)
	}
	switch status {
	case model.UnitPassed:
		return passedStyle.Render(string(status))
	case model.UnitFailed, model.UnitErrored:
		return blockedStyle.Render(string(status))
	case model.UnitSkipped:
		return dimStyle.Render(string(status))
	default:
		return warningStyle.Render(string(status))
	}
}

func unitDetail(unit model.UnitOutcome) string {
	switch {
	case unit.Script != nil && unit.Script.ExitCode != nil:
		return fmt.Sprintf("exit %d", *unit.Script.ExitCode)
	case unit.Kind == model.UnitPolicy:
		return fmt.Sprintf("%d finding(s)", len(unit.Violations))
	case unit.Review != nil && unit.Review.FailOpen:
		return "fail-open"
	case unit.Message != "":
		return unit.Message
	default:
		return ""
	}
}
