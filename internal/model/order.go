package model

import "time"

// SourceType identifies the origin system of a message batch.
type SourceType string

const (
	SourceTypeGmail SourceType = "gmail"
	SourceTypeIMAP  SourceType = "imap"
	SourceTypeMbox  SourceType = "mbox"
)

// Canonical order status labels produced by the extraction pipeline.
const (
	StatusShipped        = "Shipped"
	StatusDelivered      = "Delivered"
	StatusOutForDelivery = "Out for Delivery"
	StatusInTransit      = "In Transit"
	StatusProcessing     = "Processing"
	StatusConfirmed      = "Confirmed"
	StatusCancelled      = "Cancelled"
	StatusPending        = "Pending"
)

// SellerUnknown is the seller fallback when no display name or usable
// domain could be extracted from the sender header.
const SellerUnknown = "Unknown"

// Order is one purchase record extracted from a single email message.
// Records are immutable once built; two emails about the same purchase
// (confirmation and shipping notice) produce two independent records.
type Order struct {
	// ID is the internal unique identifier, derived from the
	// originating message id so re-syncing the same mailbox updates
	// rather than duplicates.
	ID string `json:"id"`

	// SourceType identifies which integration produced this record.
	SourceType SourceType `json:"source_type"`

	// SourceID is the identifier for the configured source instance.
	SourceID string `json:"source_id"`

	// OrderID is the retailer's order identifier, extracted from the
	// message or synthesized from metadata. Never empty.
	OrderID string `json:"order_id"`

	// SellerName is the display name of the seller. Never empty;
	// falls back to SellerUnknown.
	SellerName string `json:"seller_name"`

	// Status is the human-readable order status (use Status*
	// constants). Never empty; falls back to StatusConfirmed.
	Status string `json:"status"`

	// DeliveryDate is the expected delivery time, if one was found.
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	// SourceSubject is the subject line of the originating message.
	SourceSubject string `json:"source_subject"`

	// SourceDate is when the originating message was received.
	SourceDate time.Time `json:"source_date"`

	// SyncedAt is when this record was last written by a sync run.
	SyncedAt time.Time `json:"synced_at"`
}
