package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/models"
)

const backgroundColor = "#011922"
const headerBackgroundColor = "#1e7ba0"

var (
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3ddc84"))
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f5f"))
	baseStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// StateChangedMsg asks the dashboard to fetch a fresh status.
type StateChangedMsg struct{}

type statusMsg struct {
	status Status
	at     time.Time
}

type errMsg struct {
	err error
	at  time.Time
}

type statusSource interface {
	Status() (Status, error)
}

type Model struct {
	logger *log.Logger
	source statusSource

	table   table.Model
	status  Status
	updated time.Time
	err     error
	errAt   time.Time
}

func NewModel(logger *log.Logger, source statusSource) Model {
	columns := []table.Column{
		{Title: "Device", Width: 18},
		{Title: "Kind", Width: 8},
		{Title: "Where", Width: 14},
		{Title: "On", Width: 4},
		{Title: "Level", Width: 6},
		{Title: "Off at", Width: 9},
		{Title: "Fan °C", Width: 11},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Foreground(lipgloss.Color("#ffffff")).
		Background(lipgloss.Color(headerBackgroundColor)).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color(backgroundColor)).
		Bold(false)
	t.SetStyles(s)

	return Model{logger: logger, source: source, table: t}
}

func (m Model) Init() tea.Cmd {
	return m.refresh
}

func (m Model) refresh() tea.Msg {
	status, err := m.source.Status()
	if err != nil {
		m.logger.Error("refresh failed", "err", err)
		return errMsg{err: err, at: time.Now()}
	}
	return statusMsg{status: status, at: time.Now()}
}

func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case StateChangedMsg:
		return m, m.refresh

	case statusMsg:
		rows := deviceRows(msg.status)
		m.logger.Debug("Model.Update", "devices", len(rows))
		m.status, m.updated, m.err = msg.status, msg.at, nil
		m.table.SetRows(rows)
		m.table.SetHeight(len(rows) + 1)
		return m, nil

	case errMsg:
		// keep the last good table on screen
		m.err, m.errAt = msg.err, msg.at
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(message)
	return m, cmd
}

func (m Model) View() string {
	lines := []string{environmentLine(m.status.Environment), m.table.View()}
	if !m.updated.IsZero() {
		lines = append(lines, offStyle.Render("updated "+m.updated.Format("15:04:05")))
	}
	view := baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
	if m.err != nil {
		view += errorStyle.Render(fmt.Sprintf("%s refresh failed: %v", m.errAt.Format("15:04:05"), m.err)) + "\n"
	}
	return view + offStyle.Render("q to quit") + "\n"
}

func deviceRows(status Status) []table.Row {
	sections := []struct {
		kind    string
		devices []models.Device
	}{
		{constants.CategoryLights, status.States.Lights},
		{constants.CategoryFans, status.States.Fans},
		{constants.CategorySecurity, status.States.Security},
	}

	rows := []table.Row{}
	for _, s := range sections {
		rows = append(rows, lo.Map(s.devices, func(d models.Device, _ int) table.Row { return deviceRow(s.kind, d) })...)
	}
	return rows
}

func deviceRow(kind string, d models.Device) table.Row {
	where := lo.Ternary(d.Location != "", d.Location, d.Type)
	offAt := "-"
	if d.Schedule.Off != nil {
		offAt = d.Schedule.Off.Local().Format("15:04:05")
	}
	band := "-"
	if !d.Threshold.IsEmpty() && d.Threshold.On != nil && d.Threshold.Off != nil {
		band = fmt.Sprintf("%g..%g", *d.Threshold.Off, *d.Threshold.On)
	}
	return table.Row{d.Name, kind, where, lo.Ternary(d.IsOn, "on", "off"), fmt.Sprint(d.Intensity), offAt, band}
}

func environmentLine(env models.Environment) string {
	parts := []string{}
	if env.Reading != nil {
		parts = append(parts, onStyle.Render(fmt.Sprintf("%.1f°C %.0f%%", env.Reading.Temperature, env.Reading.Humidity)))
	} else {
		parts = append(parts, offStyle.Render("no temperature reading"))
	}
	if env.Daylight != nil {
		parts = append(parts, fmt.Sprintf("sunrise %s sunset %s",
			env.Daylight.Sunrise.Local().Format("15:04"),
			env.Daylight.Sunset.Local().Format("15:04"),
		))
	}
	return strings.Join(parts, "  ")
}
