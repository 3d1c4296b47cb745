package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/order-tracker/internal/extract"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
	"github.com/nhle/order-tracker/internal/store"
)

// SyncState represents the current state of a source sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state for a single source instance.
type SyncStatus struct {
	SourceID   string
	SourceType model.SourceType
	Name       string
	State      SyncState
	LastSync   time.Time
	Error      error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Orders        []model.Order
	SourceID      string
	Source        model.SourceType
	Stats         extract.BatchStats
	Error         error
	AuthError     *AuthErrorMsg
	NewOrderCount int
}

// AuthErrorMsg is a tea.Msg sent when a source returns an authentication error.
type AuthErrorMsg struct {
	SourceID   string
	SourceType model.SourceType
	Message    string
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
// Gmail fetches pull each matched message individually, so this is more
// generous than a single round trip needs.
const fetchTimeout = 60 * time.Second

// sourceEntry holds a registered source, its configuration, and its
// refresh trigger channel.
type sourceEntry struct {
	src       source.Source
	cfg       model.SourceConfig
	triggerCh chan struct{}
}

// Poller orchestrates background polling of registered mail sources,
// running each fetched batch through the extraction pipeline and
// upserting the resulting order records.
type Poller struct {
	store    store.Store
	pipeline *extract.Pipeline
	cfg      model.SyncConfig
	sources  []sourceEntry
	statuses map[string]*SyncStatus
	resultCh chan SyncResultMsg
	stopCh   chan struct{}
	mu       gosync.Mutex
	running  bool
}

// New creates a new Poller with the given store and sync settings.
func New(s store.Store, cfg model.SyncConfig) *Poller {
	return &Poller{
		store:    s,
		pipeline: extract.New(),
		cfg:      cfg,
		statuses: make(map[string]*SyncStatus),
		resultCh: make(chan SyncResultMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// RegisterSource adds a source adapter and its configuration to the poller.
func (p *Poller) RegisterSource(src source.Source, cfg model.SourceConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sources = append(p.sources, sourceEntry{
		src:       src,
		cfg:       cfg,
		triggerCh: make(chan struct{}, 1),
	})
	p.statuses[src.ID()] = &SyncStatus{
		SourceID:   src.ID(),
		SourceType: src.Type(),
		Name:       cfg.Name,
		State:      SyncIdle,
	}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns SyncResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	// Snapshot under the lock; Reset may replace both fields later.
	stopCh := p.stopCh
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	// Start a polling goroutine for each source
	for _, entry := range sources {
		go p.pollSource(entry, stopCh)
	}

	// Return a subscription command that listens for results
	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Reset stops any running polling goroutines and clears the registered
// source set so it can be rebuilt after configuration changes. A
// subsequent Start picks up the newly registered sources.
func (p *Poller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		close(p.stopCh)
		p.stopCh = make(chan struct{})
		p.running = false
	}

	p.sources = nil
	p.statuses = make(map[string]*SyncStatus)
}

// RefreshAll triggers an immediate poll of all registered sources.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.sources {
		select {
		case entry.triggerCh <- struct{}{}:
		default:
			// A refresh is already pending; skip to avoid blocking
		}
	}

	return nil
}

// RefreshSource triggers an immediate poll of a single source instance.
func (p *Poller) RefreshSource(sourceID string) tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.sources {
		if entry.src.ID() != sourceID {
			continue
		}
		select {
		case entry.triggerCh <- struct{}{}:
		default:
		}
		break
	}

	return nil
}

// GetStatuses returns the current sync status of all registered sources.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// RunOnce fetches every registered source once, synchronously, and
// returns the per-source results. Used by the headless fetch command;
// the TUI path uses Start instead.
func (p *Poller) RunOnce(ctx context.Context) []SyncResultMsg {
	p.mu.Lock()
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	results := make([]SyncResultMsg, 0, len(sources))
	for _, entry := range sources {
		results = append(results, p.fetchAndUpsert(ctx, entry))
	}
	return results
}

// pollSource runs the polling loop for a single source.
func (p *Poller) pollSource(entry sourceEntry, stopCh <-chan struct{}) {
	interval := time.Duration(p.cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.sendResult(p.fetchAndUpsert(context.Background(), entry))

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.sendResult(p.fetchAndUpsert(context.Background(), entry))
		case <-entry.triggerCh:
			p.sendResult(p.fetchAndUpsert(context.Background(), entry))
		}
	}
}

// fetchAndUpsert performs a single fetch, runs the extraction pipeline
// over the batch, stamps provenance on the accepted records, and
// upserts them to the store.
func (p *Poller) fetchAndUpsert(parent context.Context, entry sourceEntry) SyncResultMsg {
	id := entry.src.ID()
	st := entry.src.Type()

	p.setStatus(id, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(parent, fetchTimeout)
	defer cancel()

	result, err := entry.src.FetchMessages(ctx, source.FetchOptions{
		Since:      p.sinceTime(),
		MaxResults: p.cfg.MaxResults,
	})
	if err != nil {
		p.setStatus(id, SyncError, err)

		// Detect auth errors and emit a specific message.
		if source.IsAuthError(err) {
			return SyncResultMsg{
				SourceID: id,
				Source:   st,
				Error:    err,
				AuthError: &AuthErrorMsg{
					SourceID:   id,
					SourceType: st,
					Message: fmt.Sprintf(
						"%s: authentication expired. Press 'c' to reconfigure.",
						entry.cfg.Name,
					),
				},
			}
		}

		return SyncResultMsg{SourceID: id, Source: st, Error: err}
	}

	orders, stats := p.pipeline.BuildRecords(result.Messages)

	// The pipeline only knows the message; sync owns provenance.
	syncedAt := time.Now()
	for i := range orders {
		orders[i].SourceType = st
		orders[i].SourceID = id
		orders[i].SyncedAt = syncedAt
	}

	// Count orders not seen in the store yet. Best effort against the
	// most recently synced rows; the count only feeds the status line.
	var newOrderIDs map[string]bool
	if len(orders) > 0 {
		existing, _ := p.store.GetOrders(ctx, store.OrderFilter{
			SortBy:   "synced_at",
			SortDesc: true,
			Limit:    1000,
		})
		existingIDs := make(map[string]bool, len(existing))
		for _, o := range existing {
			existingIDs[o.ID] = true
		}
		newOrderIDs = make(map[string]bool)
		for _, o := range orders {
			if !existingIDs[o.ID] {
				newOrderIDs[o.ID] = true
			}
		}
	}

	if len(orders) > 0 {
		if upsertErr := p.store.UpsertOrders(ctx, orders); upsertErr != nil {
			p.setStatus(id, SyncError, upsertErr)
			return SyncResultMsg{SourceID: id, Source: st, Error: upsertErr}
		}
	}

	p.setStatus(id, SyncIdle, nil)
	return SyncResultMsg{
		Orders:        orders,
		SourceID:      id,
		Source:        st,
		Stats:         stats,
		NewOrderCount: len(newOrderIDs),
	}
}

// sinceTime bounds each fetch to the configured lookback window.
func (p *Poller) sinceTime() time.Time {
	days := p.cfg.LookbackDays
	if days <= 0 {
		days = 30
	}
	return time.Now().AddDate(0, 0, -days)
}

// setStatus updates the sync status for a source instance.
func (p *Poller) setStatus(id string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[id]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel. After receiving a result, it returns both the
// result message and a new waitForResult command to keep listening.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
