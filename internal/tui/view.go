package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/softwarewrighter/guardian/internal/engine"
	"github.com/softwarewrighter/guardian/internal/model"
)

// View renders the current run state.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Guardian • %s", m.phaseLabel())))

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1.0, float64(len(m.units))/float64(m.total))
	}
	counter := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", len(m.units), m.total))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Left, counter, " ", m.bar.ViewAs(ratio)))

	if len(m.units) > 0 {
		sections = append(sections, sectionStyle.Render("Checks"), m.renderUnits())
	}

	if m.verdict != nil {
		sections = append(sections, sectionStyle.Render("Verdict"), overallLine(m.verdict))
	} else if m.cancelled {
		sections = append(sections, failureStyle.Render("Cancelled"))
	} else {
		sections = append(sections, m.spinner.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderUnits() string {
	lines := make([]string, 0, len(m.units))
	for _, unit := range m.units {
		line := fmt.Sprintf(" %s %s", statusIcon(unit.Status), unit.Name)
		if unit.Message != "" {
			line = fmt.Sprintf("%s: %s", line, unit.Message)
		}
		if unit.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, unit.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) phaseLabel() string {
	switch m.phase {
	case engine.PhaseResolving:
		return "resolving backend"
	case engine.PhaseRunning:
		return "running checks"
	case engine.PhaseAggregating:
		return "aggregating"
	case engine.PhaseDone:
		return "done"
	default:
		return "starting"
	}
}

func overallLine(verdict *model.CheckVerdict) string {
	label := strings.ToUpper(string(verdict.Overall))
	switch verdict.Overall {
	case model.OverallPassed:
		return successStyle.Render(label)
	case model.OverallWarning:
		return warningStyle.Render(label)
	default:
		return failureStyle.Render(label)
	}
}
