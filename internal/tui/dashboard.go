package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Dashboard runs the device table as a bubbletea program.
type Dashboard struct {
	program *tea.Program
}

func NewDashboard(logger *log.Logger, source statusSource, opts ...tea.ProgramOption) *Dashboard {
	return &Dashboard{program: tea.NewProgram(NewModel(logger, source), opts...)}
}

// Run blocks until the user quits or Quit is called.
func (d *Dashboard) Run() error {
	_, err := d.program.Run()
	return err
}

// StateChanged asks the running program to refresh. It has the shape of a
// throttled worker job.
func (d *Dashboard) StateChanged() error {
	d.program.Send(StateChangedMsg{})
	return nil
}

func (d *Dashboard) Quit() {
	d.program.Quit()
}
