package gmail

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func textPart(mimeType, body string) *gmailapi.MessagePart {
	return &gmailapi.MessagePart{
		MimeType: mimeType,
		Body:     &gmailapi.MessagePartBody{Data: encodeBody(body)},
	}
}

func TestToRawMessage(t *testing.T) {
	adapter := NewAdapter("", KeyringTokenStore{}, "gmail-1")

	received := time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
	msg := &gmailapi.Message{
		Id:           "18f2a77b3c",
		InternalDate: received.UnixMilli(),
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "Amazon.in <order-update@amazon.in>"},
				{Name: "SUBJECT", Value: "Your order has shipped"},
				{Name: "To", Value: "buyer@example.test"},
			},
			Body: &gmailapi.MessagePartBody{
				Data: encodeBody("Order #171-2938475-1028374 is on its way."),
			},
		},
	}

	raw := adapter.toRawMessage(msg)

	if raw.ID != "gmail-1-18f2a77b3c" {
		t.Errorf("ID = %q, want %q", raw.ID, "gmail-1-18f2a77b3c")
	}
	if raw.Subject != "Your order has shipped" {
		t.Errorf("Subject = %q, want header value despite casing", raw.Subject)
	}
	if raw.Sender != "Amazon.in <order-update@amazon.in>" {
		t.Errorf("Sender = %q, want From header value", raw.Sender)
	}
	if !strings.Contains(raw.Body, "171-2938475-1028374") {
		t.Errorf("Body = %q, want decoded order text", raw.Body)
	}
	if !raw.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want %v from InternalDate", raw.ReceivedAt, received)
	}
}

func TestToRawMessageMissingInternalDate(t *testing.T) {
	adapter := NewAdapter("", KeyringTokenStore{}, "gmail-1")

	before := time.Now()
	raw := adapter.toRawMessage(&gmailapi.Message{Id: "x1"})

	if raw.ReceivedAt.Before(before) {
		t.Errorf("ReceivedAt = %v, want current time when InternalDate is unset", raw.ReceivedAt)
	}
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailapi.MessagePart{
			textPart("text/html", "<p>Your order is packed.</p>"),
			textPart("text/plain", "Your order is packed."),
		},
	}

	body := extractBody(payload)
	if body != "Your order is packed." {
		t.Errorf("extractBody() = %q, want plain-text part", body)
	}
}

func TestExtractBodyNestedParts(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmailapi.MessagePart{
					textPart("text/plain", "Order confirmed."),
				},
			},
		},
	}

	if body := extractBody(payload); body != "Order confirmed." {
		t.Errorf("extractBody() = %q, want nested plain-text part", body)
	}
}

func TestExtractBodyHTMLOnly(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailapi.MessagePart{
			textPart("text/html", "<p>Order confirmed.</p>"),
		},
	}

	body := extractBody(payload)
	if !strings.Contains(body, "<p>") {
		t.Errorf("extractBody() = %q, want raw markup for HTML-only mail", body)
	}

	if got := extractBody(nil); got != "" {
		t.Errorf("extractBody(nil) = %q, want empty string", got)
	}
}

func TestDecodeBase64URLPadding(t *testing.T) {
	// The API pads some bodies and not others. The length here is
	// chosen so the two encodings actually differ.
	const text = "Delivery by Friday."
	padded := base64.URLEncoding.EncodeToString([]byte(text))
	unpadded := base64.RawURLEncoding.EncodeToString([]byte(text))

	for _, encoded := range []string{padded, unpadded} {
		data, err := decodeBase64URL(encoded)
		if err != nil {
			t.Fatalf("decodeBase64URL(%q) error = %v", encoded, err)
		}
		if string(data) != text {
			t.Errorf("decodeBase64URL(%q) = %q, want %q", encoded, data, text)
		}
	}
}

func TestSearchQuery(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	q := searchQuery(since)

	if !strings.HasPrefix(q, "after:2025/06/01 ") {
		t.Errorf("searchQuery() = %q, want after: date prefix", q)
	}
	if !strings.Contains(q, `"order confirmation"`) {
		t.Errorf("searchQuery() = %q, want quoted order terms", q)
	}
	if !strings.Contains(q, `" OR "`) {
		t.Errorf("searchQuery() = %q, want OR-joined terms", q)
	}
	if !strings.Contains(q, "-unsubscribe") {
		t.Errorf("searchQuery() = %q, want promotional exclusions", q)
	}

	if q := searchQuery(time.Time{}); strings.Contains(q, "after:") {
		t.Errorf("searchQuery(zero) = %q, want no after: clause", q)
	}
}
