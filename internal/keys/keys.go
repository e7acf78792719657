package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// View switching
	Dashboard     key.Binding
	Schedule      key.Binding
	Calendar      key.Binding
	History       key.Binding
	Notifications key.Binding
	Advisor       key.Binding

	// Task actions
	NewTask    key.Binding
	EditTask   key.Binding
	DeleteTask key.Binding
	Complete   key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding
	Clear       key.Binding

	// Calendar navigation
	PrevMonth key.Binding
	NextMonth key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "schedule"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "calendar"),
		),
		History: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "history"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "alerts"),
		),
		Advisor: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "AI advisor"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		EditTask: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit task"),
		),
		DeleteTask: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete task"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete task"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear alerts"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next month"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit, k.Help},
		{k.Dashboard, k.Schedule, k.Calendar, k.History, k.Notifications, k.Advisor},
		{k.NewTask, k.EditTask, k.DeleteTask, k.Complete},
		{k.MarkRead, k.MarkAllRead, k.Clear, k.PrevMonth, k.NextMonth},
	}
}
