package ui

import (
	"github.com/charmbracelet/lipgloss"

	"edificaflow/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabBarHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight, TabBarHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabBarHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, tab bar and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.TabBarHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title and an alert badge.
func (l Layout) RenderHeader(title string, badge string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	badgeRendered := ""
	if badge != "" {
		badgeRendered = theme.UnreadBadgeStyle.Render(badge)
	}

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(badgeRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		badgeRendered,
	)
}

// RenderTabBar renders the view tabs, highlighting the active one.
func (l Layout) RenderTabBar(tabs []string, active int) string {
	activeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Padding(0, 1)

	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if i == active {
			rendered[i] = activeStyle.Render(tab)
		} else {
			rendered[i] = inactiveStyle.Render(tab)
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, tab bar, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	tabBar string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tabBar,
		content,
		statusBar,
	)
}
