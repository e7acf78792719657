// Package dashboard renders the overview: stat tiles plus the next
// scheduled work.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/model"
	"edificaflow/internal/state"
	"edificaflow/internal/theme"
)

// upcomingListLimit caps the "next up" section.
const upcomingListLimit = 8

// Model is the dashboard view.
type Model struct {
	stats  state.Stats
	tasks  []model.MaintenanceTask
	now    time.Time
	width  int
	height int
}

// New creates a dashboard model.
func New(width, height int) Model {
	return Model{width: width, height: height, now: time.Now()}
}

// SetData replaces the rendered snapshot.
func (m *Model) SetData(stats state.Stats, tasks []model.MaintenanceTask, now time.Time) {
	m.stats = stats
	m.tasks = tasks
	m.now = now
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages; the dashboard is read-only.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	tiles := m.renderTiles()
	next := m.renderNextUp()
	categories := m.renderCategories()

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, tiles, "", next, "", categories),
	)
}

func (m Model) renderTiles() string {
	tile := func(label string, value int, color lipgloss.AdaptiveColor) string {
		valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
		labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		return theme.StatTileStyle.Render(
			lipgloss.JoinVertical(
				lipgloss.Center,
				valueStyle.Render(fmt.Sprintf("%d", value)),
				labelStyle.Render(label),
			),
		)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		tile("Tasks", m.stats.TotalTasks, theme.ColorBlue),
		tile("Overdue", m.stats.OverdueTasks, theme.ColorRed),
		tile("Due soon", m.stats.UpcomingTasks, theme.ColorYellow),
		tile("Completed", m.stats.CompletedTasks, theme.ColorGreen),
	)
}

// renderNextUp lists pending tasks ordered by next date, soonest first.
func (m Model) renderNextUp() string {
	pending := make([]model.MaintenanceTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.Status == model.StatusPending {
			pending = append(pending, t)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].NextDate.Before(pending[j].NextDate)
	})
	if len(pending) > upcomingListLimit {
		pending = pending[:upcomingListLimit]
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Next up"))
	sb.WriteString("\n")

	if len(pending) == 0 {
		sb.WriteString(theme.HelpStyle.Render("No pending maintenance."))
		return sb.String()
	}

	for _, t := range pending {
		status := t.DisplayStatus(m.now)
		line := fmt.Sprintf(
			"%s %s %s (%s)",
			theme.StatusStyle(status).Render(status),
			t.NextDate.String(),
			t.Title,
			t.Location,
		)
		sb.WriteString(theme.ListItemStyle.Render(line))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderCategories() string {
	if len(m.stats.ByCategory) == 0 {
		return ""
	}

	names := make([]string, 0, len(m.stats.ByCategory))
	for name := range m.stats.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, m.stats.ByCategory[name]))
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	return titleStyle.Render("By category") + "\n" +
		theme.HelpStyle.Render(strings.Join(parts, "  ·  "))
}
