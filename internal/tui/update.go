package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/softwarewrighter/guardian/internal/engine"
)

// Update handles Bubbletea messages and advances model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case PhaseMsg:
		m.phase = msg.Phase
		return m, nil
	case UnitCompleteMsg:
		m.units = append(m.units, msg.Outcome)
		if m.total > 0 && len(m.units) > m.total {
			m.total = len(m.units)
		}
		return m, nil
	case VerdictMsg:
		m.verdict = msg.Verdict
		m.phase = engine.PhaseDone
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
