// Package app runs the dashboard TUI and bridges background refresh events
// into the Bubble Tea program.
package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ProgramRunner defines the interface for running a bubbletea program.
type ProgramRunner interface {
	// Run starts the program with model. attach, when not nil, receives the
	// program's Send function before the event loop starts.
	Run(model tea.Model, attach func(send func(tea.Msg))) error
}

// DefaultProgramRunner wraps tea.NewProgram with the alternate screen and
// focus reporting enabled.
type DefaultProgramRunner struct{}

// NewDefaultProgramRunner creates a new DefaultProgramRunner.
func NewDefaultProgramRunner() *DefaultProgramRunner {
	return &DefaultProgramRunner{}
}

// Run starts a bubbletea program with the given model.
func (r *DefaultProgramRunner) Run(model tea.Model, attach func(send func(tea.Msg))) error {
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	if attach != nil {
		attach(p.Send)
	}

	_, err := p.Run()
	return err
}
