package extract

import (
	"testing"

	"github.com/nhle/order-tracker/internal/model"
)

func TestExtractSeller(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name   string
		sender string
		want   string
	}{
		{
			name:   "display name",
			sender: "Amazon <no-reply@amazon.in>",
			want:   "Amazon",
		},
		{
			name:   "quoted display name",
			sender: `"Flipkart Orders" <noreply@flipkart.com>`,
			want:   "Flipkart Orders",
		},
		{
			name:   "encoded display name falls back to domain",
			sender: "=?UTF-8?B?TXludHJh?= <orders@meesho.com>",
			want:   "Meesho",
		},
		{
			name:   "bare address",
			sender: "orders@amazon.in",
			want:   "Amazon",
		},
		{
			name:   "bracketed address without display name",
			sender: "<deals@mail.noreply.shop.com>",
			want:   "Shop",
		},
		{
			name:   "no address at all",
			sender: "Corner Store",
			want:   "Corner Store",
		},
		{
			name:   "empty sender",
			sender: "",
			want:   model.SellerUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := model.RawMessage{Sender: tt.sender}
			if got := p.ExtractSeller(msg); got != tt.want {
				t.Errorf("ExtractSeller(%q) = %q, want %q", tt.sender, got, tt.want)
			}
		})
	}
}

func TestCleanDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"mail.noreply.shop.com", "Shop"},
		{"", model.SellerUnknown},
		{"www.flipkart.com", "Flipkart"},
		{"amazon.in", "Amazon"},
		{"shop.co.uk", "Shop"},
		{"no-reply.myntra.com", "Myntra"},
		{"big-basket.net", "Big-Basket"},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			if got := cleanDomain(tt.domain); got != tt.want {
				t.Errorf("cleanDomain(%q) = %q, want %q", tt.domain, got, tt.want)
			}
		})
	}
}
