package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
)

// defaultMaxResults caps a fetch when the caller sets no limit.
const defaultMaxResults = 100

// Adapter implements source.Source for Gmail via the Gmail REST API.
type Adapter struct {
	credentialsPath string
	tokens          TokenStore
	sourceID        string
}

// NewAdapter creates a new Gmail source adapter. credentialsPath
// points at the OAuth client JSON downloaded from Google Cloud
// Console; tokens supplies the cached user token.
func NewAdapter(credentialsPath string, tokens TokenStore, sourceID string) *Adapter {
	return &Adapter{
		credentialsPath: credentialsPath,
		tokens:          tokens,
		sourceID:        sourceID,
	}
}

// ID returns the configured source instance identifier.
func (a *Adapter) ID() string {
	return a.sourceID
}

// Type returns the source type identifier for Gmail.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeGmail
}

// service builds an authenticated Gmail service from the stored
// credentials and cached token. A missing token is an auth error: the
// user has to run the interactive authorization flow first.
func (a *Adapter) service(ctx context.Context) (*gmailapi.Service, error) {
	cfg, err := readOAuthConfig(a.credentialsPath)
	if err != nil {
		return nil, err
	}

	tok, err := a.tokens.LoadToken(a.sourceID)
	if err != nil {
		return nil, &source.AuthError{
			SourceType: model.SourceTypeGmail,
			Message: fmt.Sprintf(
				"no cached token for source %s: run `order-tracker auth %s`",
				a.sourceID, a.sourceID,
			),
		}
	}

	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return svc, nil
}

// ValidateConnection verifies the stored token by fetching the user's
// profile. Returns the account email address on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return "", err
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", a.wrapAPIError("validating gmail connection", err)
	}

	return profile.EmailAddress, nil
}

// FetchMessages searches the mailbox for order-related mail and
// retrieves each hit in full.
func (a *Adapter) FetchMessages(
	ctx context.Context,
	opts source.FetchOptions,
) (*source.FetchResult, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return nil, err
	}

	limit := int64(opts.MaxResults)
	if limit < 1 {
		limit = defaultMaxResults
	}

	listed, err := svc.Users.Messages.List("me").
		Q(searchQuery(opts.Since)).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, a.wrapAPIError("listing gmail messages", err)
	}

	messages := make([]model.RawMessage, 0, len(listed.Messages))
	for _, ref := range listed.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			// One unreadable message should not fail the batch.
			continue
		}
		messages = append(messages, a.toRawMessage(msg))
	}

	return &source.FetchResult{
		Messages:  messages,
		FetchedAt: time.Now(),
	}, nil
}

// toRawMessage converts a full-format Gmail message to the pipeline's
// input shape. InternalDate is the server receive time in epoch
// milliseconds, which is more reliable than parsing the Date header.
func (a *Adapter) toRawMessage(msg *gmailapi.Message) model.RawMessage {
	var subject, sender string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				subject = h.Value
			case "from":
				sender = h.Value
			}
		}
	}

	received := time.Now()
	if msg.InternalDate > 0 {
		received = time.UnixMilli(msg.InternalDate)
	}

	return model.RawMessage{
		ID:         a.sourceID + "-" + msg.Id,
		Subject:    subject,
		Sender:     sender,
		Body:       extractBody(msg.Payload),
		ReceivedAt: received,
	}
}

// extractBody pulls the message text out of the MIME part tree,
// preferring plain text. An HTML-only message is returned as markup;
// the pipeline strips tags itself.
func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}
	if text := findBody(payload, "text/plain"); text != "" {
		return text
	}
	return findBody(payload, "text/html")
}

// findBody walks the part tree depth-first for the first decodable
// part of the wanted MIME type.
func findBody(part *gmailapi.MessagePart, mimeType string) string {
	if strings.HasPrefix(part.MimeType, mimeType) &&
		part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBase64URL(part.Body.Data); err == nil {
			return string(data)
		}
	}

	for _, child := range part.Parts {
		if body := findBody(child, mimeType); body != "" {
			return body
		}
	}

	return ""
}

// decodeBase64URL accepts both padded and unpadded base64url, since
// the API is inconsistent about padding body data.
func decodeBase64URL(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}

// wrapAPIError maps rejected credentials to an AuthError so callers
// can prompt for re-authorization, and wraps everything else.
func (a *Adapter) wrapAPIError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return &source.AuthError{
			SourceType: model.SourceTypeGmail,
			Message:    fmt.Sprintf("%s: %v", op, err),
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
