// Package notifcenter shows the alert feed and its read/clear actions.
package notifcenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/keys"
	"edificaflow/internal/model"
	"edificaflow/internal/theme"
)

// MarkReadMsg asks the parent to mark one notification as read.
type MarkReadMsg struct {
	NotificationID string
}

// MarkAllReadMsg asks the parent to mark the whole feed as read.
type MarkAllReadMsg struct{}

// ClearMsg asks the parent to empty the feed.
type ClearMsg struct{}

// Model is the notification center view.
type Model struct {
	notifications []model.Notification
	cursor        int
	keys          *keys.KeyMap
	width         int
	height        int
}

// New creates a notification center model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetNotifications replaces the rendered feed.
func (m *Model) SetNotifications(notifications []model.Notification) {
	m.notifications = notifications
	if m.cursor >= len(notifications) {
		m.cursor = len(notifications) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles cursor movement and the read/clear actions.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.notifications)-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, m.keys.MarkRead), key.Matches(keyMsg, m.keys.Select):
		if m.cursor < len(m.notifications) {
			id := m.notifications[m.cursor].ID
			return m, func() tea.Msg { return MarkReadMsg{NotificationID: id} }
		}

	case key.Matches(keyMsg, m.keys.MarkAllRead):
		return m, func() tea.Msg { return MarkAllReadMsg{} }

	case key.Matches(keyMsg, m.keys.Clear):
		return m, func() tea.Msg { return ClearMsg{} }
	}

	return m, nil
}

// View renders the alert feed.
func (m Model) View() string {
	if len(m.notifications) == 0 {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.HelpStyle.Render("No alerts. Everything is on schedule."),
		)
	}

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var sb strings.Builder
	for i, n := range m.notifications {
		kind := theme.KindStyle(string(n.Kind)).Render(string(n.Kind))

		marker := "  "
		if !n.Read {
			marker = theme.UnreadBadgeStyle.Render("●")
		}

		line := fmt.Sprintf("%s %s %s", marker, kind, n.Title)
		detail := fmt.Sprintf("     %s  %s",
			n.Message,
			metaStyle.Render(n.Date.Format("2006-01-02 15:04")),
		)

		if i == m.cursor {
			sb.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			sb.WriteString(theme.ListItemStyle.Render(line))
		}
		sb.WriteString("\n")
		sb.WriteString(detail)
		sb.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(
		strings.TrimRight(sb.String(), "\n"),
	)
}
