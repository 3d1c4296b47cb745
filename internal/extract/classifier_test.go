package extract

import (
	"testing"

	"github.com/nhle/order-tracker/internal/model"
)

func TestIsOrderMessage(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name string
		msg  model.RawMessage
		want bool
	}{
		{
			name: "shipment with order number",
			msg: model.RawMessage{
				Subject: "Your Amazon.in order has shipped",
				Sender:  "orders@amazon.in",
				Body:    "Order #171-2938475-1028374",
			},
			want: true,
		},
		{
			name: "order confirmation phrase",
			msg: model.RawMessage{
				Subject: "Order Confirmation #12345678",
				Sender:  "store@shop.com",
				Body:    "Thank you for your order.",
			},
			want: true,
		},
		{
			name: "promotional blast",
			msg: model.RawMessage{
				Subject: "50% OFF everything - unsubscribe here",
				Sender:  "deals@megastore.com",
				Body:    "Huge savings storewide",
			},
			want: false,
		},
		{
			name: "receipt with incidental promo wording",
			msg: model.RawMessage{
				Subject: "Your order has shipped",
				Sender:  "store@shop.com",
				Body:    "Order #ABC-123456. Enjoy free shipping on your next purchase.",
			},
			want: true,
		},
		{
			name: "tracking number without order phrase",
			msg: model.RawMessage{
				Subject: "Package update",
				Sender:  "courier@fastship.com",
				Body:    "tracking number: ZZ99887766",
			},
			want: true,
		},
		{
			name: "marketing without identifiers",
			msg: model.RawMessage{
				Subject: "Check out our new arrivals",
				Sender:  "promo@megastore.com",
				Body:    "Shop the sale now",
			},
			want: false,
		},
		{
			name: "empty message",
			msg:  model.RawMessage{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsOrderMessage(tt.msg); got != tt.want {
				t.Errorf("IsOrderMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}
