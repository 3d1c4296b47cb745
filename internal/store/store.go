package store

import (
	"context"

	"github.com/nhle/order-tracker/internal/model"
)

// OrderFilter controls filtering, sorting, and pagination for order queries.
type OrderFilter struct {
	SourceType *string // "gmail", "imap", "mbox", or nil (all)
	Seller     *string // exact seller name or nil (all)
	Status     *string // canonical status label or nil (all)
	Query      *string // search order_id + seller_name + source_subject
	SortBy     string  // "order_id", "seller_name", "status", "delivery_date", "source_date", "synced_at"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store defines the persistence interface for extracted orders and
// configured mail sources.
type Store interface {
	// === Orders ===

	UpsertOrders(ctx context.Context, orders []model.Order) error
	GetOrders(ctx context.Context, opts OrderFilter) ([]model.Order, error)
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	CountOrders(ctx context.Context, opts OrderFilter) (int, error)
	DeleteOrdersBySource(ctx context.Context, sourceID string) error

	// === Sources ===

	UpsertSource(ctx context.Context, src model.SourceConfig) error
	GetSources(ctx context.Context) ([]model.SourceConfig, error)
	DeleteSource(ctx context.Context, id string) error
}
