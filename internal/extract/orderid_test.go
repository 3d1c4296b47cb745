package extract

import (
	"testing"
	"time"

	"github.com/nhle/order-tracker/internal/model"
)

func TestExtractOrderIDAmazonDialect(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "standard format after keyword",
			body: "Your order #171-2938475-1028374 has shipped",
			want: "171-2938475-1028374",
		},
		{
			name: "letter prefix format",
			body: "Order D01-2938475-1028374 is confirmed",
			want: "D01-2938475-1028374",
		},
		{
			name: "standalone standard format",
			body: "Ref 171-2938475-1028374 enclosed",
			want: "171-2938475-1028374",
		},
		{
			name: "standalone fourteen digits",
			body: "Shipment 40912345678901 processed",
			want: "40912345678901",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := model.RawMessage{
				Sender: "ship-confirm@amazon.in",
				Body:   tt.body,
			}
			got, ok := p.ExtractOrderID(msg)
			if !ok {
				t.Fatal("Expected an order id")
			}
			if got != tt.want {
				t.Errorf("ExtractOrderID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractOrderIDMyntraDialect(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "numeric id after keyword",
			body: "Your order id: 1234567890 is packed",
			want: "1234567890",
		},
		{
			name: "prefixed alphanumeric id",
			body: "Order MYN12345678 shipped",
			want: "MYN12345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := model.RawMessage{
				Sender: "orders@myntra.com",
				Body:   tt.body,
			}
			got, ok := p.ExtractOrderID(msg)
			if !ok {
				t.Fatal("Expected an order id")
			}
			if got != tt.want {
				t.Errorf("ExtractOrderID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMyntraLengthGuard(t *testing.T) {
	// An eight-digit capture is too short to be a real id; the dialect
	// must reject it rather than return a partial match.
	if id, ok := extractMyntraOrderID("order 12345678 placed"); ok {
		t.Errorf("Expected short numeric candidate to be rejected, got %q", id)
	}

	if id, ok := extractMyntraOrderID("order 1234567890 placed"); !ok || id != "1234567890" {
		t.Errorf("Expected ten-digit candidate to be accepted, got %q (ok=%v)", id, ok)
	}
}

func TestExtractOrderIDGenericCascade(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name string
		msg  model.RawMessage
		want string
	}{
		{
			name: "keyworded id outranks bare numbers",
			msg: model.RawMessage{
				Sender: "store@shop.example",
				Body:   "Order #INV-20394 total 149900 item 88112233",
			},
			want: "INV-20394",
		},
		{
			name: "keyword itself is never the id",
			msg: model.RawMessage{
				Sender: "store@shop.example",
				Body:   "Your order number: 87654321",
			},
			want: "87654321",
		},
		{
			name: "tracking id",
			msg: model.RawMessage{
				Sender: "courier@fastship.com",
				Body:   "tracking: 1Z999AA10123456784",
			},
			want: "1Z999AA10123456784",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.ExtractOrderID(tt.msg)
			if !ok {
				t.Fatal("Expected an order id")
			}
			if got != tt.want {
				t.Errorf("ExtractOrderID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractOrderIDRejectsShortNumeric(t *testing.T) {
	p := testPipeline()
	msg := model.RawMessage{Body: "order 1234 placed"}

	if id, ok := p.ExtractOrderID(msg); ok {
		t.Errorf("Expected no id for a short numeric candidate, got %q", id)
	}
}

func TestExtractOrderIDFallbackTiers(t *testing.T) {
	p := testPipeline()

	t.Run("subject hash token", func(t *testing.T) {
		msg := model.RawMessage{
			Subject: "Re: #AB12 status",
			Body:    "no ids found",
		}
		got, ok := p.ExtractOrderID(msg)
		if !ok || got != "AB12" {
			t.Errorf("ExtractOrderID() = %q (ok=%v), want %q", got, ok, "AB12")
		}
	})

	t.Run("subject digit run", func(t *testing.T) {
		msg := model.RawMessage{
			Subject: "Pkg 4412 update",
			Body:    "thx",
		}
		got, ok := p.ExtractOrderID(msg)
		if !ok || got != "4412" {
			t.Errorf("ExtractOrderID() = %q (ok=%v), want %q", got, ok, "4412")
		}
	})

	t.Run("metadata composition", func(t *testing.T) {
		msg := model.RawMessage{
			Subject:    "Package on the way",
			Sender:     "noreply@shop.test",
			Body:       "see you soon",
			ReceivedAt: time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
		}
		got, ok := p.ExtractOrderID(msg)
		if !ok || got != "SHOP0102" {
			t.Errorf("ExtractOrderID() = %q (ok=%v), want %q", got, ok, "SHOP0102")
		}
	})

	t.Run("all tiers exhausted", func(t *testing.T) {
		msg := model.RawMessage{
			Subject: "Package on the way",
			Body:    "see you soon",
		}
		if id, ok := p.ExtractOrderID(msg); ok {
			t.Errorf("Expected no id, got %q", id)
		}
	})
}
