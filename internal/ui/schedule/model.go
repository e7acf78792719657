// Package schedule shows the full task list and is the entry point for
// task actions.
package schedule

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/keys"
	"edificaflow/internal/model"
	"edificaflow/internal/theme"
)

// NewTaskMsg asks the parent to open the task form in create mode.
type NewTaskMsg struct{}

// EditTaskMsg asks the parent to open the task form for an existing task.
type EditTaskMsg struct {
	TaskID string
}

// DeleteTaskMsg asks the parent to delete a task.
type DeleteTaskMsg struct {
	TaskID string
}

// CompleteTaskMsg asks the parent to open the execution form for a task.
type CompleteTaskMsg struct {
	TaskID string
}

// Model is the schedule table view.
type Model struct {
	table  table.Model
	tasks  []model.MaintenanceTask
	keys   *keys.KeyMap
	now    time.Time
	width  int
	height int
}

// New creates a schedule model.
func New(k *keys.KeyMap, width, height int) Model {
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(height-4),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(theme.ColorWhite).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Bold(true).
		Foreground(theme.ColorBlue)
	t.SetStyles(styles)

	return Model{
		table:  t,
		keys:   k,
		now:    time.Now(),
		width:  width,
		height: height,
	}
}

func columns(width int) []table.Column {
	// Fixed columns take their natural width; the title absorbs the rest.
	titleWidth := width - 58
	if titleWidth < 16 {
		titleWidth = 16
	}
	return []table.Column{
		{Title: "Next", Width: 10},
		{Title: "Status", Width: 9},
		{Title: "Title", Width: titleWidth},
		{Title: "Category", Width: 12},
		{Title: "Freq", Width: 12},
		{Title: "Priority", Width: 8},
	}
}

// SetTasks replaces the table contents.
func (m *Model) SetTasks(tasks []model.MaintenanceTask, now time.Time) {
	m.tasks = tasks
	m.now = now

	rows := make([]table.Row, len(tasks))
	for i, t := range tasks {
		rows[i] = table.Row{
			t.NextDate.String(),
			t.DisplayStatus(now),
			t.Title,
			t.Category,
			t.Frequency.Label(),
			t.Priority.Label(),
		}
	}
	m.table.SetRows(rows)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(height - 4)
}

// SelectedTaskID returns the id of the highlighted task.
func (m Model) SelectedTaskID() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.tasks) {
		return "", false
	}
	return m.tasks[i].ID, true
}

// Update handles messages for the schedule view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.NewTask):
			return m, func() tea.Msg { return NewTaskMsg{} }

		case key.Matches(keyMsg, m.keys.EditTask):
			if id, ok := m.SelectedTaskID(); ok {
				return m, func() tea.Msg { return EditTaskMsg{TaskID: id} }
			}
			return m, nil

		case key.Matches(keyMsg, m.keys.DeleteTask):
			if id, ok := m.SelectedTaskID(); ok {
				return m, func() tea.Msg { return DeleteTaskMsg{TaskID: id} }
			}
			return m, nil

		case key.Matches(keyMsg, m.keys.Complete), key.Matches(keyMsg, m.keys.Select):
			if id, ok := m.SelectedTaskID(); ok {
				return m, func() tea.Msg { return CompleteTaskMsg{TaskID: id} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the schedule table.
func (m Model) View() string {
	if len(m.tasks) == 0 {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.HelpStyle.Render("No maintenance tasks yet. Press n to create one."),
		)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.table.View())
}
