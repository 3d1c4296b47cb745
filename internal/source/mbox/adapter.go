package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
)

// defaultMaxResults caps a fetch when the caller sets no limit. Mbox
// files are local archives, so the default is generous.
const defaultMaxResults = 1000

// Adapter implements source.Source for local mbox archive files, such
// as Google Takeout or Thunderbird exports.
type Adapter struct {
	path     string
	sourceID string
}

// NewAdapter creates a new mbox source adapter for the given file.
func NewAdapter(path, sourceID string) *Adapter {
	return &Adapter{
		path:     path,
		sourceID: sourceID,
	}
}

// ID returns the configured source instance identifier.
func (a *Adapter) ID() string {
	return a.sourceID
}

// Type returns the source type identifier for mbox files.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeMbox
}

// ValidateConnection checks that the archive opens and counts its
// messages. Returns the count as the status message.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return "", fmt.Errorf("opening mbox file: %w", err)
	}
	defer f.Close()

	count := 0
	r := mboxlib.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		msgReader, err := r.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading mbox: %w", err)
		}

		if _, err := io.Copy(io.Discard, msgReader); err != nil {
			return "", fmt.Errorf("reading mbox message %d: %w", count, err)
		}
		count++
	}

	return fmt.Sprintf("%d messages in %s", count, a.path), nil
}

// FetchMessages reads the archive front to back, parsing each message
// and applying the Since and MaxResults bounds. Messages that fail to
// parse are skipped rather than failing the batch.
func (a *Adapter) FetchMessages(
	ctx context.Context,
	opts source.FetchOptions,
) (*source.FetchResult, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("opening mbox file: %w", err)
	}
	defer f.Close()

	limit := opts.MaxResults
	if limit < 1 {
		limit = defaultMaxResults
	}

	var messages []model.RawMessage
	r := mboxlib.NewReader(f)
	for idx := 0; len(messages) < limit; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := r.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mbox message %d: %w", idx, err)
		}

		msg, ok := a.parseMessage(msgReader, idx)
		if !ok {
			continue
		}
		if !opts.Since.IsZero() && !msg.ReceivedAt.IsZero() &&
			msg.ReceivedAt.Before(opts.Since) {
			continue
		}

		messages = append(messages, msg)
	}

	return &source.FetchResult{
		Messages:  messages,
		FetchedAt: time.Now(),
	}, nil
}

// parseMessage decodes one RFC 2822 message into the pipeline's input
// shape. The plain-text part is preferred, falling back to HTML.
func (a *Adapter) parseMessage(r io.Reader, idx int) (model.RawMessage, bool) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return model.RawMessage{}, false
	}
	defer mr.Close()

	var msg model.RawMessage

	if id := strings.Trim(mr.Header.Get("Message-Id"), " <>"); id != "" {
		msg.ID = a.sourceID + "-" + sanitizeID(id)
	} else {
		msg.ID = fmt.Sprintf("%s-msg-%d", a.sourceID, idx)
	}

	subject, err := mr.Header.Subject()
	if err != nil {
		subject = mr.Header.Get("Subject")
	}
	msg.Subject = subject

	msg.Sender = senderHeader(mr.Header)

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		msg.ReceivedAt = date
	} else {
		msg.ReceivedAt = time.Now()
	}

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html"):
			htmlBody = string(body)
		}
	}

	msg.Body = textBody
	if msg.Body == "" {
		msg.Body = htmlBody
	}

	return msg, true
}

// senderHeader formats the From header as `Name <addr>` when a display
// name is present, matching what the extraction pipeline expects.
func senderHeader(h mail.Header) string {
	addrs, err := h.AddressList("From")
	if err != nil || len(addrs) == 0 {
		return h.Get("From")
	}

	from := addrs[0]
	if from.Name != "" {
		return fmt.Sprintf("%s <%s>", from.Name, from.Address)
	}
	return from.Address
}

var idUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeID(s string) string {
	return idUnsafeChars.ReplaceAllString(s, "")
}
