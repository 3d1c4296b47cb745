package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-tracker/internal/keys"
	"github.com/nhle/order-tracker/internal/theme"
)

// paletteCommands documents the command palette verbs, rendered below
// the keyboard bindings.
var paletteCommands = []struct {
	verb string
	desc string
}{
	{"sync", "refresh all sources now"},
	{"export csv", "write orders to a timestamped CSV"},
	{"configure", "open source configuration"},
	{"filter gmail|imap|mbox", "show one source type"},
	{"filter shipped|delivered", "show one status"},
	{"clear filters", "reset all list filters"},
	{"help", "this screen"},
	{"quit", "exit"},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: the full key binding table followed
// by the command palette reference.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		helpText,
		"",
		m.renderPalette(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// renderPalette lists the command palette verbs with one-line
// descriptions, aligned before styling so the columns line up.
func (m Model) renderPalette() string {
	headingStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite)
	verbStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue)

	lines := make([]string, 0, len(paletteCommands)+1)
	lines = append(lines, headingStyle.Render("Palette Commands (:)"))
	for _, c := range paletteCommands {
		verb := fmt.Sprintf("%-28s", ":"+c.verb)
		lines = append(lines, verbStyle.Render(verb)+theme.HelpStyle.Render(c.desc))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
