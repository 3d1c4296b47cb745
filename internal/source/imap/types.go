package imap

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string

	// From is the sender formatted as `Name <addr>` when a display
	// name is present, or the bare address otherwise. The extraction
	// pipeline relies on this shape to derive seller names.
	From string

	Date time.Time
	UID  uint32
}

// ParsedMessage holds one fetched message with its decoded bodies.
type ParsedMessage struct {
	Envelope Envelope
	TextBody string
	HTMLBody string
}
