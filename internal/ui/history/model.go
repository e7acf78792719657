// Package history shows the completed-work log.
package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/model"
	"edificaflow/internal/theme"
)

// Model is the history view: a scrollable log of completed executions,
// newest first.
type Model struct {
	viewport viewport.Model
	entries  []model.HistoryEntry
	width    int
	height   int
}

// New creates a history model.
func New(width, height int) Model {
	vp := viewport.New(width-4, height-4)
	return Model{
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// SetEntries replaces the rendered log.
func (m *Model) SetEntries(entries []model.HistoryEntry) {
	m.entries = entries
	m.viewport.SetContent(m.renderEntries())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
	m.viewport.SetContent(m.renderEntries())
}

// Update delegates scrolling to the viewport.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the history log.
func (m Model) View() string {
	if len(m.entries) == 0 {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.HelpStyle.Render("No completed maintenance yet."),
		)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.viewport.View())
}

func (m Model) renderEntries() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	linkStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Underline(true)

	var sections []string
	for _, e := range m.entries {
		var sb strings.Builder
		sb.WriteString(titleStyle.Render(e.TaskTitle))
		sb.WriteString("\n")
		sb.WriteString(metaStyle.Render(fmt.Sprintf(
			"%s · %s · %s · by %s",
			e.CompletedAt.Format("2006-01-02 15:04"),
			e.Category,
			e.Location,
			e.ExecutedBy,
		)))
		sb.WriteString("\n")
		sb.WriteString(e.WorkDescription)

		for _, a := range e.Attachments {
			sb.WriteString("\n")
			sb.WriteString(metaStyle.Render(fmt.Sprintf("  [%s] ", a.Kind)))
			sb.WriteString(linkStyle.Render(a.Name))
		}
		if e.DocumentationLink != "" {
			sb.WriteString("\n")
			sb.WriteString(metaStyle.Render("  docs: "))
			sb.WriteString(linkStyle.Render(e.DocumentationLink))
		}

		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n\n")
}
