// Package tui renders live progress for an interactive check run.
package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/softwarewrighter/guardian/internal/engine"
	"github.com/softwarewrighter/guardian/internal/model"
)

// PhaseMsg announces a coordinator phase transition.
type PhaseMsg struct {
	Phase engine.Phase
}

// UnitCompleteMsg reports one finished check unit.
type UnitCompleteMsg struct {
	Outcome model.UnitOutcome
}

// VerdictMsg carries the final verdict and ends the program.
type VerdictMsg struct {
	Verdict *model.CheckVerdict
}

// Model holds the Bubbletea state for a check run.
type Model struct {
	phase     engine.Phase
	units     []model.UnitOutcome
	total     int
	verdict   *model.CheckVerdict
	spinner   spinner.Model
	bar       progress.Model
	finished  bool
	cancelled bool
}

// NewModel constructs a TUI model expecting total check units.
func NewModel(total int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	return Model{
		phase:   engine.PhaseIdle,
		total:   total,
		spinner: sp,
		bar:     bar,
	}
}

// Init starts the spinner ticker.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// CompletedUnits returns the number of unit outcomes received so far.
func (m Model) CompletedUnits() int {
	return len(m.units)
}

// IsFinished reports whether the run reached a verdict or was cancelled.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Verdict returns the final verdict, or nil before completion.
func (m Model) Verdict() *model.CheckVerdict {
	return m.verdict
}
