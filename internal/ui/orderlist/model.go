package orderlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-tracker/internal/keys"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/store"
	"github.com/nhle/order-tracker/internal/theme"
)

// OrdersLoadedMsg is sent when orders have been loaded from the store.
type OrdersLoadedMsg struct {
	Orders []model.Order
}

// SelectedOrderMsg is sent when a user selects an order to view details.
type SelectedOrderMsg struct {
	// ID is the internal record id, not the retailer order id.
	ID string
}

// sortModes defines the available sort modes cycled by Tab.
var sortModes = []string{
	"source_date",
	"delivery_date",
	"seller_name",
	"status",
	"order_id",
}

// statusCycle defines the status filter states cycled by 's'.
// The empty string means no status filter.
var statusCycle = []string{
	"",
	model.StatusConfirmed,
	model.StatusProcessing,
	model.StatusPending,
	model.StatusShipped,
	model.StatusInTransit,
	model.StatusOutForDelivery,
	model.StatusDelivered,
	model.StatusCancelled,
}

// Model is the main order list view component.
type Model struct {
	list           list.Model
	store          store.Store
	keys           *keys.KeyMap
	filter         store.OrderFilter
	sourceFilters  map[model.SourceType]bool
	erroredSources map[string]bool
	sortIndex      int
	statusIndex    int
	searchMode     bool
	searchInput    textinput.Model
	width          int
	height         int
}

// New creates a new order list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	errored := make(map[string]bool)
	delegate := ItemDelegate{erroredSources: errored}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Orders"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search orders..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:  l,
		store: s,
		keys:  k,
		filter: store.OrderFilter{
			SortBy:   "source_date",
			SortDesc: true,
		},
		sourceFilters:  make(map[model.SourceType]bool),
		erroredSources: errored,
		searchInput:    si,
		width:          width,
		height:         height,
	}
}

// Init returns a command that loads the initial set of orders.
func (m Model) Init() tea.Cmd {
	return m.LoadOrders()
}

// SetSourceError flags a source instance as failing so its rows show a
// warning indicator.
func (m *Model) SetSourceError(sourceID string, failed bool) {
	if failed {
		m.erroredSources[sourceID] = true
	} else {
		delete(m.erroredSources, sourceID)
	}
}

// Update handles messages for the order list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case OrdersLoadedMsg:
		items := make([]list.Item, len(msg.Orders))
		for i, order := range msg.Orders {
			items[i] = OrderItem{Order: order}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	// Delegate to list model for other messages
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Query = &query
		} else {
			m.filter.Query = nil
		}
		return m, m.LoadOrders()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.LoadOrders()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(OrderItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedOrderMsg{ID: item.Order.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterGmail):
		m.toggleSourceFilter(model.SourceTypeGmail)
		return m, m.LoadOrders()

	case key.Matches(msg, m.keys.FilterIMAP):
		m.toggleSourceFilter(model.SourceTypeIMAP)
		return m, m.LoadOrders()

	case key.Matches(msg, m.keys.FilterMbox):
		m.toggleSourceFilter(model.SourceTypeMbox)
		return m, m.LoadOrders()

	case key.Matches(msg, m.keys.CycleStatus):
		m.statusIndex = (m.statusIndex + 1) % len(statusCycle)
		if status := statusCycle[m.statusIndex]; status != "" {
			m.filter.Status = &status
		} else {
			m.filter.Status = nil
		}
		return m, m.LoadOrders()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.filter.SortBy = sortModes[m.sortIndex]
		// Date columns read newest first; text columns alphabetically.
		m.filter.SortDesc = strings.HasSuffix(m.filter.SortBy, "_date")
		return m, m.LoadOrders()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// toggleSourceFilter toggles a source type filter on or off and
// updates the filter struct accordingly.
func (m *Model) toggleSourceFilter(st model.SourceType) {
	if m.sourceFilters[st] {
		delete(m.sourceFilters, st)
	} else {
		m.sourceFilters[st] = true
	}

	// Count active source filters
	var activeTypes []model.SourceType
	for st, active := range m.sourceFilters {
		if active {
			activeTypes = append(activeTypes, st)
		}
	}

	// If exactly one source filter is active, apply it; otherwise show all
	if len(activeTypes) == 1 {
		s := string(activeTypes[0])
		m.filter.SourceType = &s
	} else {
		m.filter.SourceType = nil
	}
}

// View renders the order list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no orders are available.
func (m Model) renderEmptyState() string {
	hasFilters := m.filter.SourceType != nil ||
		m.filter.Status != nil ||
		m.filter.Seller != nil ||
		m.filter.Query != nil

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if hasFilters {
		return style.Render("No matching orders.\nTry adjusting your filters.")
	}

	return style.Render(
		"No orders found.\n\n" +
			"Press c to add a mail source, then r to sync.",
	)
}

// LoadOrders returns a tea.Cmd that queries the store with the current filter.
func (m Model) LoadOrders() tea.Cmd {
	filter := m.filter
	s := m.store
	return func() tea.Msg {
		orders, err := s.GetOrders(context.Background(), filter)
		if err != nil {
			return OrdersLoadedMsg{Orders: nil}
		}
		return OrdersLoadedMsg{Orders: orders}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

// Searching reports whether the search input currently has focus.
// The root model uses this to avoid stealing typed characters.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetSourceFilter applies a single source type filter, replacing any
// key-toggled state. Used by the command palette.
func (m *Model) SetSourceFilter(sourceType string) tea.Cmd {
	m.sourceFilters = map[model.SourceType]bool{
		model.SourceType(sourceType): true,
	}
	s := sourceType
	m.filter.SourceType = &s
	return m.LoadOrders()
}

// SetStatusFilter applies a status filter. An empty string clears it.
func (m *Model) SetStatusFilter(status string) tea.Cmd {
	m.statusIndex = 0
	for i, s := range statusCycle {
		if s == status {
			m.statusIndex = i
			break
		}
	}
	if status != "" {
		m.filter.Status = &status
	} else {
		m.filter.Status = nil
	}
	return m.LoadOrders()
}

// ClearFilters removes all active filters and reloads the list.
func (m *Model) ClearFilters() tea.Cmd {
	m.sourceFilters = make(map[model.SourceType]bool)
	m.statusIndex = 0
	m.filter.SourceType = nil
	m.filter.Status = nil
	m.filter.Seller = nil
	m.filter.Query = nil
	m.searchInput.Reset()
	return m.LoadOrders()
}

// FilterSummary describes the active filters for the status bar, or an
// empty string when nothing is filtered.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.SourceType != nil {
		parts = append(parts, "source:"+*m.filter.SourceType)
	}
	if m.filter.Status != nil {
		parts = append(parts, "status:"+*m.filter.Status)
	}
	if m.filter.Query != nil {
		parts = append(parts, fmt.Sprintf("search:%q", *m.filter.Query))
	}
	if len(parts) == 0 {
		return ""
	}
	return "filters: " + strings.Join(parts, " ")
}
