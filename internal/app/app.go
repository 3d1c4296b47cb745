package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/order-tracker/internal/export"
	"github.com/nhle/order-tracker/internal/keys"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/store"
	appsync "github.com/nhle/order-tracker/internal/sync"
	"github.com/nhle/order-tracker/internal/ui"
	"github.com/nhle/order-tracker/internal/ui/command"
	configview "github.com/nhle/order-tracker/internal/ui/config"
	"github.com/nhle/order-tracker/internal/ui/detail"
	helpview "github.com/nhle/order-tracker/internal/ui/help"
	"github.com/nhle/order-tracker/internal/ui/orderlist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewConfig
	ViewHelp
	ViewCommand
)

// exportDoneMsg carries the result of a CSV export.
type exportDoneMsg struct {
	path  string
	count int
	err   error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView      ViewState
	previousView     ViewState
	layout           ui.Layout
	store            *store.SQLiteStore
	keys             *keys.KeyMap
	orderList        orderlist.Model
	detail           detail.Model
	helpView         helpview.Model
	commandView      command.Model
	configView       configview.Model
	poller           *appsync.Poller
	ready            bool
	setupShown       bool
	newOrders        int
	notice           string
	authErrorMessage string
}

// New creates a new root application model with the given store and
// sync settings.
func New(s *store.SQLiteStore, syncCfg model.SyncConfig) Model {
	k := keys.DefaultKeyMap()
	p := appsync.New(s, syncCfg)

	return Model{
		currentView: ViewList,
		store:       s,
		keys:        k,
		orderList:   orderlist.New(s, k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		configView:  configview.New(s, k, 80, 24),
		poller:      p,
	}
}

// Init returns the initial commands to load orders and start polling.
// Configured sources are registered before the poller starts so all
// adapters are available for the first sync.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.orderList.Init(),
		m.registerSources(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.orderList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sourcesRegisteredMsg:
		// With no sources configured, enter setup once; returning to the
		// empty list afterwards stays allowed.
		if msg.count == 0 {
			if m.setupShown {
				return m, nil
			}
			m.setupShown = true
			m.previousView = m.currentView
			m.currentView = ViewConfig
			return m, m.configView.Init()
		}
		m.setupShown = true
		// Sources are registered; now start the poller.
		return m, m.poller.Start()

	case appsync.SyncResultMsg:
		// Surface auth errors in the status bar until resolved.
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}

		// Flag failing sources so their rows show a warning indicator.
		m.orderList.SetSourceError(msg.SourceID, msg.Error != nil)

		m.newOrders += msg.NewOrderCount

		// After a sync completes, reload the list and keep listening.
		return m, tea.Batch(
			m.orderList.LoadOrders(),
			m.poller.WaitForNextResult(),
		)

	case orderlist.SelectedOrderMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadOrderDetail(msg.ID)

	case detail.OrderLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		// Run before returning m; executeCommand may switch views.
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		// Rebuild the source set and restart polling after config changes.
		return m, tea.Batch(
			m.orderList.LoadOrders(),
			m.registerSources(),
		)

	case configview.SourceSavedMsg:
		return m, tea.Batch(
			m.orderList.LoadOrders(),
			m.registerSources(),
		)

	case configview.SourceDeletedMsg:
		return m, tea.Batch(
			m.orderList.LoadOrders(),
			m.registerSources(),
		)

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.notice = fmt.Sprintf("Exported %d orders to %s", msg.count, msg.path)
		}
		return m, nil

	case tea.KeyMsg:
		m.notice = ""

		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.poller.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewList && !m.orderList.Searching() {
				m.poller.Stop()
				return m, tea.Quit
			}

		case "esc":
			if m.currentView == ViewCommand || m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case "?":
			// Do not intercept while a text input may have focus
			if m.currentView == ViewCommand || m.currentView == ViewConfig ||
				m.orderList.Searching() {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.currentView == ViewConfig || m.orderList.Searching() {
				break
			}
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case "c":
			if m.currentView == ViewList && !m.orderList.Searching() {
				m.previousView = m.currentView
				m.currentView = ViewConfig
				return m, m.configView.Init()
			}

		case "r":
			if m.currentView == ViewList && !m.orderList.Searching() {
				m.poller.RefreshAll()
				return m, m.orderList.LoadOrders()
			}

		case "e":
			if m.currentView == ViewList && !m.orderList.Searching() {
				return m, m.exportOrders()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.orderList, cmd = m.orderList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	badge := ""
	if m.newOrders > 0 {
		badge = fmt.Sprintf("%d new", m.newOrders)
	}
	header := m.layout.RenderHeader("Order Tracker", badge, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.orderList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	statuses := m.poller.GetStatuses()
	if len(statuses) == 0 {
		return "no sources"
	}

	running := 0
	errCount := 0
	var staleNames []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			errCount++
			staleNames = append(staleNames, s.Name)
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if errCount > 0 {
		return fmt.Sprintf("⚠ unreachable: %s", joinNames(staleNames))
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Show auth errors prominently when present.
	if m.authErrorMessage != "" && m.currentView == ViewList {
		return m.authErrorMessage
	}
	if m.notice != "" && m.currentView == ViewList {
		return m.notice
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | j/k scroll"
	case ViewConfig:
		return "a add | e edit | d delete | enter test | esc back"
	default:
		filterSummary := m.orderList.FilterSummary()
		if filterSummary != "" {
			return filterSummary + " | :clear to reset"
		}
		return "q quit | ? help | / search | s status | 1/2/3 source | tab sort | r sync"
	}
}

// loadOrderDetail returns a command that loads an order by its record ID.
func (m Model) loadOrderDetail(orderID string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		order, err := s.GetOrderByID(context.Background(), orderID)
		if err != nil {
			return detail.OrderLoadedMsg{Order: nil}
		}
		return detail.OrderLoadedMsg{Order: order}
	}
}

// exportOrders writes all stored orders to a timestamped CSV file in
// the working directory.
func (m Model) exportOrders() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		orders, err := s.GetOrders(context.Background(), store.OrderFilter{
			SortBy:   "source_date",
			SortDesc: true,
		})
		if err != nil {
			return exportDoneMsg{err: err}
		}

		path := defaultExportPath(time.Now())
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		if err := export.WriteCSV(f, orders); err != nil {
			f.Close()
			return exportDoneMsg{err: err}
		}
		if err := f.Close(); err != nil {
			return exportDoneMsg{err: err}
		}

		return exportDoneMsg{path: path, count: len(orders)}
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		m.poller.RefreshAll()
		return m.orderList.LoadOrders()
	case "quit", "q":
		m.poller.Stop()
		return tea.Quit
	case "configure", "config":
		m.previousView = m.currentView
		m.currentView = ViewConfig
		return m.configView.Init()
	case "export", "export csv":
		return m.exportOrders()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "filter gmail", "gmail":
		return m.orderList.SetSourceFilter(string(model.SourceTypeGmail))
	case "filter imap", "imap":
		return m.orderList.SetSourceFilter(string(model.SourceTypeIMAP))
	case "filter mbox", "mbox":
		return m.orderList.SetSourceFilter(string(model.SourceTypeMbox))
	case "filter delivered", "delivered":
		return m.orderList.SetStatusFilter(model.StatusDelivered)
	case "filter shipped", "shipped":
		return m.orderList.SetStatusFilter(model.StatusShipped)
	case "clear filters", "clear":
		return m.orderList.ClearFilters()
	default:
		return nil
	}
}
