package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/softwarewrighter/guardian/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func statusIcon(status model.UnitStatus) string {
	switch status {
	case model.UnitPassed:
		return successStyle.Render("✔")
	case model.UnitFailed, model.UnitErrored:
		return failureStyle.Render("✖")
	case model.UnitWarned, model.UnitTimedOut:
		return warningStyle.Render("!")
	case model.UnitSkipped:
		return skippedStyle.Render("-")
	default:
		return " "
	}
}
