package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-tracker/internal/theme"
)

// Layout manages the terminal frame: a one-line header carrying the
// title, the session new-order badge, and the sync state; the content
// area; and a one-line status bar with key hints.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar: the title on the left, the sync
// state on the right, and, when non-empty, a highlighted new-order
// badge between them.
func (l Layout) RenderHeader(title, badge, syncStatus string) string {
	left := theme.HeaderStyle.Render(title)
	if badge != "" {
		left = lipgloss.JoinHorizontal(
			lipgloss.Top,
			left,
			theme.HeaderBadgeStyle.Render(badge),
		)
	}

	right := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		fillBar(theme.HeaderStyle, gap),
		right,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	gap := l.Width - lipgloss.Width(rendered)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		rendered,
		fillBar(theme.StatusBarStyle, gap),
	)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

// fillBar stretches a bar's background across the unused width so the
// header and status bar span the whole terminal row.
func fillBar(style lipgloss.Style, width int) string {
	if width < 0 {
		width = 0
	}
	return style.Render(
		lipgloss.NewStyle().
			Width(width).
			Background(style.GetBackground()).
			Render(""),
	)
}
