// Package execform records one execution of a maintenance task.
package execform

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/model"
	"edificaflow/internal/schedule"
	"edificaflow/internal/theme"
)

// ExecutionSubmittedMsg is dispatched when the completion form is submitted.
type ExecutionSubmittedMsg struct {
	TaskID     string
	Completion schedule.Completion
}

// ExecFormCancelMsg is dispatched when the user cancels the form.
type ExecFormCancelMsg struct{}

type formBindings struct {
	executedBy      string
	workDescription string
	attachments     string
	docLink         string
}

// Model is the Bubble Tea model for the execution form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	task   model.MaintenanceTask
	width  int
	height int
}

// New creates a new execution form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for completing the given task.
func (m *Model) Start(task model.MaintenanceTask) tea.Cmd {
	m.task = task
	*m.fb = formBindings{docLink: ""}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the execution form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ExecFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the execution form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	header := titleStyle.Render("Complete: "+m.task.Title) + "\n" +
		metaStyle.Render(fmt.Sprintf("Due %s · %s", m.task.NextDate, m.task.Location))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(header + "\n\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Executed By").
			Placeholder("Who did the work?").
			Value(&m.fb.executedBy).
			Validate(validateRequired("Executed By")),
		huh.NewText().
			Title("Work Description").
			Placeholder("What was done?").
			Value(&m.fb.workDescription).
			Validate(validateRequired("Work Description")),
		huh.NewText().
			Title("Attachments").
			Placeholder("One per line: name|url (optional)").
			Value(&m.fb.attachments),
		huh.NewInput().
			Title("Documentation Link").
			Placeholder("URL (optional, kept on the task)").
			Value(&m.fb.docLink),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	taskID := m.task.ID
	c := schedule.Completion{
		ExecutedBy:        strings.TrimSpace(m.fb.executedBy),
		WorkDescription:   strings.TrimSpace(m.fb.workDescription),
		Attachments:       parseAttachments(m.fb.attachments),
		DocumentationLink: strings.TrimSpace(m.fb.docLink),
	}
	return func() tea.Msg {
		return ExecutionSubmittedMsg{TaskID: taskID, Completion: c}
	}
}

// parseAttachments reads "name|url" lines. A line without a pipe is treated
// as a URL with its base name as the display name. The kind is inferred from
// the file extension.
func parseAttachments(raw string) []model.Attachment {
	var attachments []model.Attachment
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, url := line, line
		if i := strings.Index(line, "|"); i >= 0 {
			name = strings.TrimSpace(line[:i])
			url = strings.TrimSpace(line[i+1:])
		} else {
			name = filepath.Base(line)
		}
		if url == "" {
			continue
		}

		attachments = append(attachments, model.Attachment{
			Name: name,
			URL:  url,
			Kind: inferKind(url),
		})
	}
	return attachments
}

func inferKind(url string) model.AttachmentKind {
	switch strings.ToLower(filepath.Ext(url)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".svg":
		return model.AttachmentImage
	default:
		return model.AttachmentDocument
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
