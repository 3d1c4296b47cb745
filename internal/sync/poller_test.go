package sync_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
	"github.com/nhle/order-tracker/internal/store"
	"github.com/nhle/order-tracker/internal/sync"
	"github.com/nhle/order-tracker/tests/testutil"
)

// fakeSource returns canned messages or a canned error.
type fakeSource struct {
	id   string
	typ  model.SourceType
	msgs []model.RawMessage
	err  error
}

func (f *fakeSource) ID() string             { return f.id }
func (f *fakeSource) Type() model.SourceType { return f.typ }

func (f *fakeSource) ValidateConnection(ctx context.Context) (string, error) {
	return "ok", nil
}

func (f *fakeSource) FetchMessages(
	ctx context.Context,
	opts source.FetchOptions,
) (*source.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &source.FetchResult{Messages: f.msgs, FetchedAt: time.Now()}, nil
}

func orderBatch() []model.RawMessage {
	received := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	return []model.RawMessage{
		{
			ID:         "b-1",
			Subject:    "Your order has shipped",
			Sender:     "orders@amazon.in",
			Body:       "Order #171-2938475-1028374",
			ReceivedAt: received,
		},
		{
			ID:         "b-2",
			Subject:    "Weekend sale - new arrivals",
			Sender:     "promo@megastore.com",
			Body:       "Browse our newsletter deals",
			ReceivedAt: received,
		},
		{
			ID:         "b-3",
			Subject:    "Order Confirmation #87654321",
			Sender:     "store@shop.com",
			Body:       "Thank you for your order.",
			ReceivedAt: received,
		},
	}
}

func TestRunOnceExtractsAndStores(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	fake := &fakeSource{id: "mbox-1", typ: model.SourceTypeMbox, msgs: orderBatch()}
	p := sync.New(s, model.SyncConfig{IntervalMinutes: 15, LookbackDays: 30, MaxResults: 100})
	p.RegisterSource(fake, model.SourceConfig{ID: "mbox-1", Type: "mbox", Name: "Archive"})

	results := p.RunOnce(ctx)
	if len(results) != 1 {
		t.Fatalf("RunOnce() returned %d results, want 1", len(results))
	}

	r := results[0]
	if r.Error != nil {
		t.Fatalf("RunOnce() result error = %v", r.Error)
	}
	if r.Stats.Processed != 3 || r.Stats.Accepted != 2 || r.Stats.Rejected != 1 {
		t.Errorf("Stats = %+v, want 3 processed, 2 accepted, 1 rejected", r.Stats)
	}
	if r.NewOrderCount != 2 {
		t.Errorf("NewOrderCount = %d, want 2", r.NewOrderCount)
	}

	count, err := s.CountOrders(ctx, store.OrderFilter{})
	if err != nil {
		t.Fatalf("CountOrders() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountOrders() = %d, want 2", count)
	}

	got, err := s.GetOrderByID(ctx, "b-1")
	if err != nil {
		t.Fatalf("GetOrderByID(b-1) error = %v", err)
	}
	if got.SourceType != model.SourceTypeMbox {
		t.Errorf("SourceType = %q, want %q", got.SourceType, model.SourceTypeMbox)
	}
	if got.SourceID != "mbox-1" {
		t.Errorf("SourceID = %q, want %q", got.SourceID, "mbox-1")
	}
	if got.SyncedAt.IsZero() {
		t.Error("SyncedAt is zero, want sync timestamp")
	}

	// A second pass over the same mailbox updates in place.
	results = p.RunOnce(ctx)
	if results[0].NewOrderCount != 0 {
		t.Errorf("NewOrderCount on re-sync = %d, want 0", results[0].NewOrderCount)
	}
	count, err = s.CountOrders(ctx, store.OrderFilter{})
	if err != nil {
		t.Fatalf("CountOrders() after re-sync error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountOrders() after re-sync = %d, want 2", count)
	}
}

func TestRunOnceAuthError(t *testing.T) {
	s := testutil.NewTestStore(t)

	fake := &fakeSource{
		id:  "imap-1",
		typ: model.SourceTypeIMAP,
		err: &source.AuthError{SourceType: model.SourceTypeIMAP, Message: "login failed"},
	}
	p := sync.New(s, model.SyncConfig{})
	p.RegisterSource(fake, model.SourceConfig{ID: "imap-1", Type: "imap", Name: "Personal mail"})

	r := p.RunOnce(context.Background())[0]
	if r.Error == nil {
		t.Fatal("RunOnce() result error = nil, want auth failure")
	}
	if r.AuthError == nil {
		t.Fatal("AuthError = nil, want auth error message")
	}
	if r.AuthError.SourceID != "imap-1" {
		t.Errorf("AuthError.SourceID = %q, want %q", r.AuthError.SourceID, "imap-1")
	}
	if !strings.Contains(r.AuthError.Message, "Personal mail") {
		t.Errorf("AuthError.Message = %q, want source name included", r.AuthError.Message)
	}

	statuses := p.GetStatuses()
	if len(statuses) != 1 {
		t.Fatalf("GetStatuses() returned %d statuses, want 1", len(statuses))
	}
	if statuses[0].State != sync.SyncError {
		t.Errorf("status State = %v, want SyncError", statuses[0].State)
	}
}

func TestRunOnceFetchError(t *testing.T) {
	s := testutil.NewTestStore(t)

	fake := &fakeSource{
		id:  "mbox-1",
		typ: model.SourceTypeMbox,
		err: errors.New("file vanished"),
	}
	p := sync.New(s, model.SyncConfig{})
	p.RegisterSource(fake, model.SourceConfig{ID: "mbox-1", Type: "mbox", Name: "Archive"})

	r := p.RunOnce(context.Background())[0]
	if r.Error == nil {
		t.Fatal("RunOnce() result error = nil, want fetch failure")
	}
	if r.AuthError != nil {
		t.Errorf("AuthError = %+v, want nil for non-auth failure", r.AuthError)
	}
}
