package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-tracker/internal/keys"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// OrderLoadedMsg carries the loaded order record.
type OrderLoadedMsg struct {
	Order *model.Order
}

// Model is the order detail view component.
type Model struct {
	order    *model.Order
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case OrderLoadedMsg:
		m.order = msg.Order
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg {
				return BackMsg{}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading order details...")
	}

	if m.order == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No order selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.order == nil {
		return ""
	}

	order := m.order
	var sections []string

	// Subject line as the title
	title := order.SourceSubject
	if title == "" {
		title = "(no subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(title))

	// Badges line: source + status
	srcBadge := theme.SourceLabelStyle(
		string(order.SourceType),
	).Render(strings.ToUpper(string(order.SourceType)))

	statusBadge := theme.StatusStyle(order.Status).Render(order.Status)

	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top, srcBadge, "  ", statusBadge,
	)
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	// Metadata table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("Order ID:"),
		valStyle.Render(order.OrderID),
	))
	sections = append(sections, fmt.Sprintf(
		"%s    %s",
		metaStyle.Render("Seller:"),
		valStyle.Render(order.SellerName),
	))

	sections = append(sections, deliveryLine(order, metaStyle))

	if !order.SourceDate.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(order.SourceDate.Format("2006-01-02 15:04")),
		))
	}
	if !order.SyncedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s    %s",
			metaStyle.Render("Synced:"),
			valStyle.Render(order.SyncedAt.Format("2006-01-02 15:04")),
		))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Provenance footnote
	noteStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
	sections = append(sections, noteStyle.Render(
		fmt.Sprintf("Extracted from message %s via source %s", order.ID, order.SourceID),
	))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// deliveryLine formats the expected delivery row, colored by urgency.
func deliveryLine(order *model.Order, metaStyle lipgloss.Style) string {
	label := metaStyle.Render("Delivery:")

	if order.DeliveryDate == nil {
		unknown := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("unknown")
		return fmt.Sprintf("%s  %s", label, unknown)
	}

	days := daysUntil(*order.DeliveryDate)
	value := theme.DeliveryStyle(days).Render(fmt.Sprintf(
		"%s (%s)",
		order.DeliveryDate.Format("Mon, Jan 2 2006"),
		deliveryPhrase(days),
	))
	return fmt.Sprintf("%s  %s", label, value)
}

// deliveryPhrase describes a day offset in words.
func deliveryPhrase(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("%d days ago", -days)
	case days == -1:
		return "yesterday"
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// daysUntil counts whole calendar days from today to t, negative when past.
func daysUntil(t time.Time) int {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

// SetOrder updates the order being displayed and re-renders the content.
func (m *Model) SetOrder(order *model.Order) {
	m.order = order
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
