package imap

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
)

// defaultMaxResults caps a fetch when the caller sets no limit.
const defaultMaxResults = 100

// Adapter implements source.Source for plain IMAP mailboxes.
type Adapter struct {
	client   *Client
	sourceID string
	username string
	mailbox  string
}

// NewAdapter creates a new IMAP source adapter.
func NewAdapter(
	host, port string,
	username, password string,
	useTLS bool,
	mailbox, sourceID string,
) *Adapter {
	return &Adapter{
		client:   NewClient(host, port, username, password, useTLS),
		sourceID: sourceID,
		username: username,
		mailbox:  mailbox,
	}
}

// ID returns the configured source instance identifier.
func (a *Adapter) ID() string {
	return a.sourceID
}

// Type returns the source type identifier for IMAP.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeIMAP
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting the mailbox. Returns the username on
// success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	client, err := a.client.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating IMAP connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	mailbox := a.mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	return a.username, nil
}

// FetchMessages retrieves recent messages from the mailbox and maps
// them to raw messages for the extraction pipeline.
func (a *Adapter) FetchMessages(
	ctx context.Context,
	opts source.FetchOptions,
) (*source.FetchResult, error) {
	limit := opts.MaxResults
	if limit < 1 {
		limit = defaultMaxResults
	}

	parsed, err := a.client.FetchMessages(ctx, a.mailbox, opts.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching IMAP messages: %w", err)
	}

	messages := make([]model.RawMessage, 0, len(parsed))
	for _, pm := range parsed {
		messages = append(messages, a.toRawMessage(pm))
	}

	return &source.FetchResult{
		Messages:  messages,
		FetchedAt: time.Now(),
	}, nil
}

// toRawMessage converts a parsed IMAP message to the pipeline's input
// shape. The plain-text body is preferred; the HTML body is carried
// as-is when no plain part exists, since the pipeline strips markup
// itself.
func (a *Adapter) toRawMessage(pm ParsedMessage) model.RawMessage {
	id := a.sourceID + "-" + sanitizeID(pm.Envelope.MessageID)
	if pm.Envelope.MessageID == "" {
		id = fmt.Sprintf("%s-uid-%d", a.sourceID, pm.Envelope.UID)
	}

	body := pm.TextBody
	if body == "" {
		body = pm.HTMLBody
	}

	received := pm.Envelope.Date
	if received.IsZero() {
		received = time.Now()
	}

	return model.RawMessage{
		ID:         id,
		Subject:    pm.Envelope.Subject,
		Sender:     pm.Envelope.From,
		Body:       body,
		ReceivedAt: received,
	}
}

var idUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeID strips characters that would make a message id awkward
// as a database key.
func sanitizeID(s string) string {
	return idUnsafeChars.ReplaceAllString(s, "")
}
