package mbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nhle/order-tracker/internal/source"
)

const sampleMbox = `From noreply@amazon.example Mon Jun 10 10:00:00 2024
From: "Amazon.in" <noreply@amazon.example>
Subject: Your order has shipped
Message-Id: <abc123@amazon.example>
Date: Mon, 10 Jun 2024 10:00:00 +0000
Content-Type: text/plain; charset=utf-8

Your order #171-2938475-1028374 has shipped.

From offers@myntra.example Tue Jul 01 09:00:00 2025
From: Myntra <offers@myntra.example>
Subject: Your order is packed
Date: Tue, 01 Jul 2025 09:00:00 +0000
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Your order id: 1234567890 is packed.
--b1
Content-Type: text/html; charset=utf-8

<p>Your order id: <b>1234567890</b> is packed.</p>
--b1--
`

func writeSampleMbox(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orders.mbox")
	if err := os.WriteFile(path, []byte(sampleMbox), 0o644); err != nil {
		t.Fatalf("writing sample mbox: %v", err)
	}
	return path
}

func TestFetchMessagesParsesArchive(t *testing.T) {
	adapter := NewAdapter(writeSampleMbox(t), "mbox-1")

	result, err := adapter.FetchMessages(context.Background(), source.FetchOptions{})
	if err != nil {
		t.Fatalf("FetchMessages() error = %v", err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("FetchMessages() returned %d messages, want 2", len(result.Messages))
	}

	first := result.Messages[0]
	if first.ID != "mbox-1-abc123amazon.example" {
		t.Errorf("first message ID = %q, want %q", first.ID, "mbox-1-abc123amazon.example")
	}
	if first.Subject != "Your order has shipped" {
		t.Errorf("first message Subject = %q, want %q", first.Subject, "Your order has shipped")
	}
	if first.Sender != "Amazon.in <noreply@amazon.example>" {
		t.Errorf("first message Sender = %q, want %q", first.Sender, "Amazon.in <noreply@amazon.example>")
	}
	if !strings.Contains(first.Body, "171-2938475-1028374") {
		t.Errorf("first message Body = %q, want order id present", first.Body)
	}
	if first.ReceivedAt.Year() != 2024 {
		t.Errorf("first message ReceivedAt = %v, want year 2024", first.ReceivedAt)
	}

	second := result.Messages[1]
	if second.ID != "mbox-1-msg-1" {
		t.Errorf("second message ID = %q, want positional fallback %q", second.ID, "mbox-1-msg-1")
	}
	if second.Sender != "Myntra <offers@myntra.example>" {
		t.Errorf("second message Sender = %q, want %q", second.Sender, "Myntra <offers@myntra.example>")
	}
	if !strings.Contains(second.Body, "Your order id: 1234567890 is packed.") {
		t.Errorf("second message Body = %q, want plain-text part", second.Body)
	}
	if strings.Contains(second.Body, "<p>") {
		t.Errorf("second message Body = %q, want HTML part skipped", second.Body)
	}
}

func TestFetchMessagesSinceFilter(t *testing.T) {
	adapter := NewAdapter(writeSampleMbox(t), "mbox-1")

	result, err := adapter.FetchMessages(context.Background(), source.FetchOptions{
		Since: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("FetchMessages() error = %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("FetchMessages() returned %d messages, want 1", len(result.Messages))
	}
	if result.Messages[0].ID != "mbox-1-msg-1" {
		t.Errorf("remaining message ID = %q, want %q", result.Messages[0].ID, "mbox-1-msg-1")
	}
}

func TestFetchMessagesMaxResults(t *testing.T) {
	adapter := NewAdapter(writeSampleMbox(t), "mbox-1")

	result, err := adapter.FetchMessages(context.Background(), source.FetchOptions{
		MaxResults: 1,
	})
	if err != nil {
		t.Fatalf("FetchMessages() error = %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("FetchMessages() returned %d messages, want 1", len(result.Messages))
	}
	if result.Messages[0].ID != "mbox-1-abc123amazon.example" {
		t.Errorf("message ID = %q, want first archive entry", result.Messages[0].ID)
	}
}

func TestValidateConnection(t *testing.T) {
	adapter := NewAdapter(writeSampleMbox(t), "mbox-1")

	status, err := adapter.ValidateConnection(context.Background())
	if err != nil {
		t.Fatalf("ValidateConnection() error = %v", err)
	}
	if !strings.HasPrefix(status, "2 messages") {
		t.Errorf("ValidateConnection() = %q, want 2 message count", status)
	}
}

func TestValidateConnectionMissingFile(t *testing.T) {
	adapter := NewAdapter(filepath.Join(t.TempDir(), "absent.mbox"), "mbox-1")

	if _, err := adapter.ValidateConnection(context.Background()); err == nil {
		t.Error("ValidateConnection() error = nil, want open failure")
	}
}
