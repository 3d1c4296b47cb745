package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// HeaderBadgeStyle highlights the new-order counter in the header bar.
var HeaderBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorGreen).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// StatusStyle returns a color-coded style for the given canonical
// order status label, tracking the shipping lifecycle.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "Confirmed":
		return base.Foreground(ColorBlue)
	case "Processing", "Pending":
		return base.Foreground(ColorYellow)
	case "Shipped", "In Transit":
		return base.Foreground(ColorMagenta)
	case "Out for Delivery":
		return base.Foreground(ColorOrange)
	case "Delivered":
		return base.Foreground(ColorGreen)
	case "Cancelled":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// DeliveryStyle returns a color-coded style for a delivery date that
// is the given number of days away. Negative means already past.
func DeliveryStyle(daysUntil int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case daysUntil < 0:
		return base.Foreground(ColorGray)
	case daysUntil == 0:
		return base.Foreground(ColorOrange)
	case daysUntil <= 2:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGreen)
	}
}

// SourceLabelStyle returns a color-coded style for the given source type label.
func SourceLabelStyle(sourceType string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch sourceType {
	case "gmail":
		return base.Foreground(ColorRed)
	case "imap":
		return base.Foreground(ColorBlue)
	case "mbox":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
