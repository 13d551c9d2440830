package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the program on the alternate screen and blocks until the user
// quits. Cancelling the Model's context is a clean exit.
func (m *Model) Run(opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{
		tea.WithContext(m.ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}, opts...)
	m.program = tea.NewProgram(m, opts...)
	_, err := m.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

// SessionExpired is the request client's expiry hook. It may be called from
// any goroutine.
func (m *Model) SessionExpired() {
	m.sess.Expire()
	if m.program != nil {
		m.program.Send(expiredMsg{})
	}
}
