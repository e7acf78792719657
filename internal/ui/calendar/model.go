// Package calendar renders a month view of scheduled maintenance.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/keys"
	"edificaflow/internal/model"
	"edificaflow/internal/theme"
)

// Model is the calendar view. It shows one month at a time; h/l move
// between months.
type Model struct {
	tasks  []model.MaintenanceTask
	keys   *keys.KeyMap
	now    time.Time
	month  time.Time // first day of the displayed month
	width  int
	height int
}

// New creates a calendar model anchored on the current month.
func New(k *keys.KeyMap, width, height int) Model {
	now := time.Now()
	return Model{
		keys:   k,
		now:    now,
		month:  time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		width:  width,
		height: height,
	}
}

// SetTasks replaces the rendered snapshot.
func (m *Model) SetTasks(tasks []model.MaintenanceTask, now time.Time) {
	m.tasks = tasks
	m.now = now
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles month navigation.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.PrevMonth):
			m.month = m.month.AddDate(0, -1, 0)
		case key.Matches(keyMsg, m.keys.NextMonth):
			m.month = m.month.AddDate(0, 1, 0)
		}
	}
	return m, nil
}

// tasksByDay groups pending tasks falling in the displayed month by day.
func (m Model) tasksByDay() map[int][]model.MaintenanceTask {
	byDay := make(map[int][]model.MaintenanceTask)
	for _, t := range m.tasks {
		if t.Status != model.StatusPending {
			continue
		}
		d := t.NextDate
		if d.Year() == m.month.Year() && d.Month() == m.month.Month() {
			byDay[d.Day()] = append(byDay[d.Day()], t)
		}
	}
	return byDay
}

// View renders the month grid with an agenda of the month's tasks below it.
func (m Model) View() string {
	byDay := m.tasksByDay()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := titleStyle.Render(m.month.Format("January 2006"))

	grid := m.renderGrid(byDay)
	agenda := m.renderAgenda(byDay)

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", grid, "", agenda),
	)
}

func (m Model) renderGrid(byDay map[int][]model.MaintenanceTask) string {
	dayStyle := lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	busyStyle := dayStyle.Bold(true).Foreground(theme.ColorYellow)
	overdueStyle := dayStyle.Bold(true).Foreground(theme.ColorRed)
	todayStyle := dayStyle.Bold(true).Foreground(theme.ColorBlue).Underline(true)
	headStyle := lipgloss.NewStyle().Width(4).Align(lipgloss.Right).Foreground(theme.ColorGray)

	var sb strings.Builder
	for _, wd := range []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"} {
		sb.WriteString(headStyle.Render(wd))
	}
	sb.WriteString("\n")

	today := model.Today(m.now)
	daysInMonth := m.month.AddDate(0, 1, -1).Day()

	// Monday-first column offset for day 1.
	offset := (int(m.month.Weekday()) + 6) % 7
	for i := 0; i < offset; i++ {
		sb.WriteString(dayStyle.Render(""))
	}

	col := offset
	for day := 1; day <= daysInMonth; day++ {
		date := model.NewDate(m.month.Year(), m.month.Month(), day)
		label := fmt.Sprintf("%d", day)
		if n := len(byDay[day]); n > 0 {
			label = fmt.Sprintf("%d*", day)
		}

		style := dayStyle
		switch {
		case date.Equal(today):
			style = todayStyle
		case len(byDay[day]) > 0 && date.Before(today):
			style = overdueStyle
		case len(byDay[day]) > 0:
			style = busyStyle
		}
		sb.WriteString(style.Render(label))

		col++
		if col%7 == 0 {
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderAgenda(byDay map[int][]model.MaintenanceTask) string {
	if len(byDay) == 0 {
		return theme.HelpStyle.Render("Nothing scheduled this month.")
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	var sb strings.Builder
	for _, day := range days {
		tasks := byDay[day]
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Rank() > tasks[j].Priority.Rank()
		})
		for _, t := range tasks {
			status := t.DisplayStatus(m.now)
			line := fmt.Sprintf(
				"%s %s %s (%s)",
				t.NextDate.String(),
				theme.StatusStyle(status).Render(status),
				t.Title,
				t.Location,
			)
			sb.WriteString(theme.ListItemStyle.Render(line))
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
