package model

import "time"

// RawMessage is a fetched email in the shape the extraction pipeline
// consumes. Source adapters guarantee the string fields are always
// present (possibly empty) and ReceivedAt is always valid, defaulting
// to the fetch time when the message carries no usable date.
type RawMessage struct {
	// ID is an opaque identifier assigned by the source.
	ID string `json:"id"`

	// Subject is the plain-text subject line.
	Subject string `json:"subject"`

	// Sender is the raw "From" header value; it may contain a display
	// name, an angle-bracketed address, or both.
	Sender string `json:"sender"`

	// Body is the message text. It may contain HTML markup; the
	// pipeline treats it as untrusted, arbitrarily malformed text.
	Body string `json:"body"`

	// ReceivedAt is when the message arrived.
	ReceivedAt time.Time `json:"received_at"`
}
