// Package advisor is the AI plan generator panel: describe the building,
// review the proposed plan, import it as tasks.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "edificaflow/internal/ai"
	"edificaflow/internal/keys"
	"edificaflow/internal/theme"
)

// RequestState tracks the lifecycle of a plan generation request.
type RequestState int

const (
	StateIdle RequestState = iota
	StateInFlight
	StateFailed
	StateSucceeded
)

// PlanReadyMsg carries a generated plan back to the panel.
type PlanReadyMsg struct {
	Items []aiservice.PlanItem
}

// PlanErrorMsg carries a generation failure back to the panel.
type PlanErrorMsg struct {
	Err error
}

// ImportPlanMsg asks the parent to turn the reviewed plan into tasks.
type ImportPlanMsg struct {
	Items []aiservice.PlanItem
}

// AdvisorCloseMsg signals the parent to close the advisor panel.
type AdvisorCloseMsg struct{}

// Model is the advisor panel Bubble Tea model.
type Model struct {
	planner  *aiservice.Planner
	input    textarea.Model
	viewport viewport.Model
	state    RequestState
	items    []aiservice.PlanItem
	errMsg   string
	keys     *keys.KeyMap
	width    int
	height   int
	noAPIKey bool
}

// New creates an advisor model. If planner is nil (no API key), the panel
// displays a configuration prompt instead.
func New(planner *aiservice.Planner, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe the building: floors, facilities, equipment, special areas..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(4)
	ta.CharLimit = 4000
	ta.Focus()

	vpHeight := height - 10
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	return Model{
		planner:  planner,
		input:    ta,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
		noAPIKey: planner == nil,
	}
}

// Init returns the initial command for the advisor panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// State returns the current request state.
func (m Model) State() RequestState {
	return m.state
}

// Update handles messages for the advisor panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PlanReadyMsg:
		m.state = StateSucceeded
		m.items = msg.Items
		m.errMsg = ""
		m.refreshViewport()
		return m, nil

	case PlanErrorMsg:
		m.state = StateFailed
		m.errMsg = msg.Err.Error()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.state == StateInFlight {
			return m, nil
		}
		return m, func() tea.Msg { return AdvisorCloseMsg{} }

	case "enter":
		if m.noAPIKey || m.state == StateInFlight {
			return m, nil
		}

		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.state = StateInFlight
		m.items = nil
		m.errMsg = ""
		m.refreshViewport()
		return m, m.generatePlan(text)

	case "ctrl+y":
		// Import the reviewed plan.
		if m.state == StateSucceeded && len(m.items) > 0 {
			items := m.items
			m.state = StateIdle
			m.items = nil
			m.input.Reset()
			m.refreshViewport()
			return m, func() tea.Msg { return ImportPlanMsg{Items: items} }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// generatePlan returns a command that calls the planner.
func (m Model) generatePlan(description string) tea.Cmd {
	planner := m.planner
	return func() tea.Msg {
		items, err := planner.GeneratePlan(context.Background(), description)
		if err != nil {
			return PlanErrorMsg{Err: err}
		}
		return PlanReadyMsg{Items: items}
	}
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderPlan())
	m.viewport.GotoTop()
}

func (m Model) renderPlan() string {
	switch m.state {
	case StateInFlight:
		return theme.HelpStyle.Render("Generating plan...")

	case StateFailed:
		errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed)
		return errStyle.Render("Plan generation failed: "+m.errMsg) + "\n" +
			theme.HelpStyle.Render("Adjust the description and press enter to retry.")

	case StateSucceeded:
		return m.renderItems()

	default:
		return theme.HelpStyle.Render(
			"Describe the building above and press enter. " +
				"The proposed plan appears here for review before import.",
		)
	}
}

func (m Model) renderItems() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var sections []string
	for i, item := range m.items {
		var sb strings.Builder
		sb.WriteString(titleStyle.Render(fmt.Sprintf("%d. %s", i+1, item.Title)))
		sb.WriteString("\n")
		sb.WriteString(metaStyle.Render(fmt.Sprintf(
			"%s · %s · %s",
			item.Category,
			item.Frequency.Label(),
			theme.PriorityStyle(string(item.Priority)).Render(item.Priority.Label()),
		)))
		sb.WriteString("\n")
		sb.WriteString(item.Description)
		if item.Justification != "" {
			sb.WriteString("\n")
			sb.WriteString(theme.HelpStyle.Render("Why: " + item.Justification))
		}
		sections = append(sections, sb.String())
	}

	header := titleStyle.Render(fmt.Sprintf("Proposed plan (%d tasks)", len(m.items))) +
		"\n" + theme.HelpStyle.Render("ctrl+y import · enter regenerate · esc close")

	return header + "\n\n" + strings.Join(sections, "\n\n")
}

// View renders the advisor panel.
func (m Model) View() string {
	if m.noAPIKey {
		return m.renderNoAPIKey()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("AI Maintenance Advisor")

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	sepWidth := m.width - 6
	if sepWidth > 80 {
		sepWidth = 80
	}
	if sepWidth < 1 {
		sepWidth = 1
	}
	separator := sepStyle.Render(strings.Repeat("─", sepWidth))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.input.View(),
		separator,
		m.viewport.View(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// renderNoAPIKey shows a message when the API key is not configured.
func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "The AI advisor requires an Anthropic API key.\n\n" +
		"To configure, store your API key in the system keyring:\n" +
		"  Key name: anthropic-api-key\n\n" +
		"Or set the ANTHROPIC_API_KEY environment variable.\n\n" +
		"Press Esc to go back."

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the advisor panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 10
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}

// Focus gives keyboard focus to the description input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset clears the panel state.
func (m *Model) Reset() {
	m.state = StateIdle
	m.items = nil
	m.errMsg = ""
	m.input.Reset()
	m.refreshViewport()
}
