// Package app wires the state manager and all views into the root Bubble
// Tea model.
package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	aiservice "edificaflow/internal/ai"
	"edificaflow/internal/keys"
	"edificaflow/internal/model"
	"edificaflow/internal/state"
	"edificaflow/internal/ui"
	"edificaflow/internal/ui/advisor"
	"edificaflow/internal/ui/calendar"
	"edificaflow/internal/ui/dashboard"
	"edificaflow/internal/ui/execform"
	"edificaflow/internal/ui/helpview"
	"edificaflow/internal/ui/history"
	"edificaflow/internal/ui/notifcenter"
	"edificaflow/internal/ui/schedule"
	"edificaflow/internal/ui/taskform"
)

// stateChangedMsg signals that the state manager has new data.
type stateChangedMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewSchedule
	ViewCalendar
	ViewHistory
	ViewNotifications
	ViewAdvisor
	ViewTaskCreate
	ViewTaskEdit
	ViewExec
	ViewHelp
)

// tabNames label the six main views in the tab bar.
var tabNames = []string{
	"1 Dashboard", "2 Schedule", "3 Calendar",
	"4 History", "5 Alerts", "6 Advisor",
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the state manager.
type Model struct {
	currentView   ViewState
	previousView  ViewState
	layout        ui.Layout
	manager       *state.Manager
	log           *zap.Logger
	keys          *keys.KeyMap
	dashboardView dashboard.Model
	scheduleView  schedule.Model
	calendarView  calendar.Model
	historyView   history.Model
	notifView     notifcenter.Model
	advisorView   advisor.Model
	taskFormView  taskform.Model
	execFormView  execform.Model
	helpView      helpview.Model
	ready         bool
	statusMessage string
}

// New creates a new root application model.
func New(manager *state.Manager, planner *aiservice.Planner, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView:   ViewDashboard,
		manager:       manager,
		log:           log,
		keys:          k,
		dashboardView: dashboard.New(80, 24),
		scheduleView:  schedule.New(k, 80, 24),
		calendarView:  calendar.New(k, 80, 24),
		historyView:   history.New(80, 24),
		notifView:     notifcenter.New(k, 80, 24),
		advisorView:   advisor.New(planner, k, 80, 24),
		taskFormView:  taskform.New(80, 24),
		execFormView:  execform.New(80, 24),
		helpView:      helpview.New(k, 80, 24),
	}
	m.refreshViews()
	return m
}

// Init evaluates alerts once at startup and begins waiting for state
// updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.evaluateNow(),
		m.waitForUpdate(),
	)
}

// waitForUpdate returns a command that blocks on the state manager's
// update channel.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.manager.Updates()
	return func() tea.Msg {
		<-updates
		return stateChangedMsg{}
	}
}

// evaluateNow returns a command that runs an immediate alert evaluation.
func (m Model) evaluateNow() tea.Cmd {
	manager := m.manager
	log := m.log
	return func() tea.Msg {
		if _, err := manager.EvaluateNow(); err != nil {
			log.Error("startup alert evaluation failed", zap.Error(err))
		}
		return nil
	}
}

// refreshViews pushes fresh state snapshots into every data view.
func (m *Model) refreshViews() {
	now := time.Now()
	tasks := m.manager.Tasks()

	m.dashboardView.SetData(m.manager.Stats(), tasks, now)
	m.scheduleView.SetTasks(tasks, now)
	m.calendarView.SetTasks(tasks, now)
	m.historyView.SetEntries(m.manager.History())
	m.notifView.SetNotifications(m.manager.Notifications())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.dashboardView.SetSize(contentWidth, contentHeight)
		m.scheduleView.SetSize(contentWidth, contentHeight)
		m.calendarView.SetSize(contentWidth, contentHeight)
		m.historyView.SetSize(contentWidth, contentHeight)
		m.notifView.SetSize(contentWidth, contentHeight)
		m.advisorView.SetSize(contentWidth, contentHeight)
		m.taskFormView.SetSize(contentWidth, contentHeight)
		m.execFormView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case stateChangedMsg:
		m.refreshViews()
		return m, m.waitForUpdate()

	case schedule.NewTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewTaskCreate
		m.taskFormView.SetCategories(m.manager.Categories())
		return m, m.taskFormView.StartCreate()

	case schedule.EditTaskMsg:
		task, ok := m.manager.Task(msg.TaskID)
		if !ok {
			m.statusMessage = "task no longer exists"
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewTaskEdit
		m.taskFormView.SetCategories(m.manager.Categories())
		return m, m.taskFormView.StartEdit(task)

	case schedule.DeleteTaskMsg:
		if err := m.manager.DeleteTask(msg.TaskID); err != nil {
			m.statusMessage = err.Error()
			m.log.Error("deleting task failed", zap.Error(err))
		} else {
			m.statusMessage = "task deleted"
		}
		m.refreshViews()
		return m, nil

	case schedule.CompleteTaskMsg:
		task, ok := m.manager.Task(msg.TaskID)
		if !ok {
			m.statusMessage = "task no longer exists"
			return m, nil
		}
		// Only pending tasks take a completion record; a completed task
		// opens for editing instead.
		if task.Status == model.StatusCompleted {
			m.previousView = m.currentView
			m.currentView = ViewTaskEdit
			m.taskFormView.SetCategories(m.manager.Categories())
			return m, m.taskFormView.StartEdit(task)
		}
		m.previousView = m.currentView
		m.currentView = ViewExec
		return m, m.execFormView.Start(task)

	case taskform.TaskSubmittedMsg:
		m.currentView = ViewSchedule
		if msg.Edit {
			if err := m.manager.UpdateTask(msg.Task); err != nil {
				m.statusMessage = err.Error()
				m.log.Error("updating task failed", zap.Error(err))
			} else {
				m.statusMessage = fmt.Sprintf("updated %q", msg.Task.Title)
			}
		} else {
			if _, err := m.manager.AddTask(msg.Task); err != nil {
				m.statusMessage = err.Error()
				m.log.Error("adding task failed", zap.Error(err))
			} else {
				m.statusMessage = fmt.Sprintf("created %q", msg.Task.Title)
			}
		}
		m.refreshViews()
		return m, nil

	case taskform.TaskFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case execform.ExecutionSubmittedMsg:
		m.currentView = ViewSchedule
		entry, err := m.manager.CompleteTask(msg.TaskID, msg.Completion)
		if err != nil {
			m.statusMessage = err.Error()
			m.log.Error("completing task failed", zap.Error(err))
		} else {
			m.statusMessage = fmt.Sprintf("completed %q", entry.TaskTitle)
		}
		m.refreshViews()
		return m, nil

	case execform.ExecFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case notifcenter.MarkReadMsg:
		if err := m.manager.MarkNotificationRead(msg.NotificationID); err != nil {
			m.statusMessage = err.Error()
		}
		m.refreshViews()
		return m, nil

	case notifcenter.MarkAllReadMsg:
		if err := m.manager.MarkAllNotificationsRead(); err != nil {
			m.statusMessage = err.Error()
		}
		m.refreshViews()
		return m, nil

	case notifcenter.ClearMsg:
		if err := m.manager.ClearNotifications(); err != nil {
			m.statusMessage = err.Error()
		}
		m.refreshViews()
		return m, nil

	case advisor.ImportPlanMsg:
		created, err := m.manager.ImportPlan(msg.Items)
		if err != nil {
			m.statusMessage = err.Error()
			m.log.Error("importing plan failed", zap.Error(err))
		} else {
			m.statusMessage = fmt.Sprintf("imported %d tasks", len(created))
			m.currentView = ViewSchedule
		}
		m.refreshViews()
		return m, nil

	case advisor.AdvisorCloseMsg:
		m.advisorView.Reset()
		m.currentView = ViewDashboard
		return m, nil

	case advisor.PlanReadyMsg, advisor.PlanErrorMsg:
		var cmd tea.Cmd
		m.advisorView, cmd = m.advisorView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		m.statusMessage = ""
		if handled, mdl, cmd := m.handleGlobalKey(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused view.
// Keys are not intercepted while a text-entry view is active.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, m, tea.Quit
	}

	// Forms and the advisor own the keyboard.
	switch m.currentView {
	case ViewTaskCreate, ViewTaskEdit, ViewExec, ViewAdvisor:
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		return true, m, tea.Quit

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}

	case "1":
		m.currentView = ViewDashboard
		return true, m, nil
	case "2":
		m.currentView = ViewSchedule
		return true, m, nil
	case "3":
		m.currentView = ViewCalendar
		return true, m, nil
	case "4":
		m.currentView = ViewHistory
		return true, m, nil
	case "5":
		m.currentView = ViewNotifications
		return true, m, nil
	case "6":
		m.previousView = m.currentView
		m.currentView = ViewAdvisor
		return true, m, m.advisorView.Focus()
	}

	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewDashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case ViewSchedule:
		m.scheduleView, cmd = m.scheduleView.Update(msg)
	case ViewCalendar:
		m.calendarView, cmd = m.calendarView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewAdvisor:
		m.advisorView, cmd = m.advisorView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskFormView, cmd = m.taskFormView.Update(msg)
	case ViewExec:
		m.execFormView, cmd = m.execFormView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	badge := ""
	if unread := m.manager.UnreadCount(); unread > 0 {
		badge = fmt.Sprintf("%d alerts", unread)
	}

	header := m.layout.RenderHeader("EdificaFlow", badge)
	tabBar := m.layout.RenderTabBar(tabNames, m.activeTab())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, tabBar, content, statusBar)
}

// activeTab maps the current view to its tab index; modal views keep the
// tab they were opened from.
func (m Model) activeTab() int {
	switch m.currentView {
	case ViewDashboard:
		return 0
	case ViewSchedule, ViewTaskCreate, ViewTaskEdit, ViewExec:
		return 1
	case ViewCalendar:
		return 2
	case ViewHistory:
		return 3
	case ViewNotifications:
		return 4
	case ViewAdvisor:
		return 5
	default:
		return int(m.previousView)
	}
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewSchedule:
		return m.scheduleView.View()
	case ViewCalendar:
		return m.calendarView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewAdvisor:
		return m.advisorView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskFormView.View()
	case ViewExec:
		return m.execFormView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMessage != "" {
		return m.statusMessage
	}

	switch m.currentView {
	case ViewSchedule:
		return "n new | e edit | c complete | d delete | j/k move | ? help"
	case ViewCalendar:
		return "h/l month | 1-6 views | ? help"
	case ViewHistory:
		return "j/k scroll | 1-6 views | ? help"
	case ViewNotifications:
		return "m mark read | M mark all | x clear | j/k move"
	case ViewAdvisor:
		return "enter generate | ctrl+y import | esc close"
	case ViewTaskCreate, ViewTaskEdit, ViewExec:
		return "enter next field | esc cancel"
	case ViewHelp:
		return "? close help | esc back"
	default:
		return "q quit | ? help | 1-6 views | 2 schedule | 6 AI advisor"
	}
}
