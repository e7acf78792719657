// Package taskform is the create/edit form for maintenance tasks.
package taskform

import (
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/model"
	"edificaflow/internal/theme"
)

// TaskSubmittedMsg is dispatched when the form completes. For edits, Task
// carries the original id; for creates the id is empty and assigned by the
// state manager.
type TaskSubmittedMsg struct {
	Task model.MaintenanceTask
	Edit bool
}

// TaskFormCancelMsg is dispatched when the user cancels the form.
type TaskFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title            string
	description      string
	category         string
	newCategory      string
	location         string
	frequency        model.Frequency
	priority         model.Priority
	nextDate         string
	responsible      string
	responsibleEmail string
	docLink          string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editMode   bool
	editTask   model.MaintenanceTask
	categories []string
	width      int
	height     int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetCategories sets the selectable categories.
func (m *Model) SetCategories(categories []string) {
	m.categories = categories
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editTask = model.MaintenanceTask{}
	*m.fb = formBindings{
		category:  "General",
		frequency: model.FrequencyMonthly,
		priority:  model.PriorityMedium,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing task's values.
func (m *Model) StartEdit(task model.MaintenanceTask) tea.Cmd {
	m.editMode = true
	m.editTask = task
	*m.fb = formBindings{
		title:            task.Title,
		description:      task.Description,
		category:         task.Category,
		location:         task.Location,
		frequency:        task.Frequency,
		priority:         task.Priority,
		nextDate:         task.NextDate.String(),
		responsible:      task.Responsible,
		responsibleEmail: task.ResponsibleEmail,
		docLink:          task.DocumentationLink,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
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
		return m, func() tea.Msg { return TaskFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Maintenance Task"
	if m.editMode {
		titleText = "Edit Maintenance Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	frequencyOpts := make([]huh.Option[model.Frequency], len(model.Frequencies))
	for i, f := range model.Frequencies {
		frequencyOpts[i] = huh.NewOption(f.Label(), f)
	}

	priorityOpts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		priorityOpts[i] = huh.NewOption(p.Label(), p)
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs maintaining?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		m.categoryField(),
		huh.NewInput().
			Title("New category").
			Placeholder("Leave empty to use the selection above").
			Value(&m.fb.newCategory),
		huh.NewInput().
			Title("Location").
			Placeholder("Where in the building?").
			Value(&m.fb.location).
			Validate(validateRequired("Location")),
		huh.NewSelect[model.Frequency]().
			Title("Frequency").
			Options(frequencyOpts...).
			Value(&m.fb.frequency),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(priorityOpts...).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Next Date").
			Placeholder("YYYY-MM-DD (empty = today)").
			Value(&m.fb.nextDate).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Responsible").
			Placeholder("Person or company (optional)").
			Value(&m.fb.responsible),
		huh.NewInput().
			Title("Responsible Email").
			Placeholder("email (optional)").
			Value(&m.fb.responsibleEmail).
			Validate(validateOptionalEmail),
		huh.NewInput().
			Title("Documentation Link").
			Placeholder("URL (optional)").
			Value(&m.fb.docLink),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) categoryField() huh.Field {
	opts := make([]huh.Option[string], 0, len(m.categories))
	for _, c := range m.categories {
		opts = append(opts, huh.NewOption(c, c))
	}
	if len(opts) == 0 {
		opts = append(opts, huh.NewOption("General", "General"))
	}
	return huh.NewSelect[string]().
		Title("Category").
		Options(opts...).
		Value(&m.fb.category)
}

func (m Model) handleSubmit() tea.Cmd {
	category := m.fb.category
	if c := strings.TrimSpace(m.fb.newCategory); c != "" {
		category = c
	}

	task := model.MaintenanceTask{
		Title:             strings.TrimSpace(m.fb.title),
		Description:       strings.TrimSpace(m.fb.description),
		Category:          category,
		Location:          strings.TrimSpace(m.fb.location),
		Frequency:         m.fb.frequency,
		Priority:          m.fb.priority,
		Responsible:       strings.TrimSpace(m.fb.responsible),
		ResponsibleEmail:  strings.TrimSpace(m.fb.responsibleEmail),
		DocumentationLink: strings.TrimSpace(m.fb.docLink),
	}

	if d := strings.TrimSpace(m.fb.nextDate); d != "" {
		// Validated by the field; a parse failure here cannot happen.
		parsed, err := model.ParseDate(d)
		if err == nil {
			task.NextDate = parsed
		}
	}

	edit := m.editMode
	if edit {
		task.ID = m.editTask.ID
		task.Status = m.editTask.Status
		if task.NextDate.IsZero() {
			task.NextDate = m.editTask.NextDate
		}
	}

	return func() tea.Msg { return TaskSubmittedMsg{Task: task, Edit: edit} }
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
	h := m.height - 4
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

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := model.ParseDate(s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
