package extract

import (
	"testing"

	"github.com/nhle/order-tracker/internal/model"
)

func TestExtractStatus(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name   string
		msg    model.RawMessage
		want   string
		wantOK bool
	}{
		{
			name:   "vocabulary word in body",
			msg:    model.RawMessage{Body: "Your package has shipped and is en route."},
			want:   model.StatusShipped,
			wantOK: true,
		},
		{
			name:   "vocabulary word keeps canonical casing",
			msg:    model.RawMessage{Body: "OUT FOR DELIVERY: your parcel arrives soon."},
			want:   model.StatusOutForDelivery,
			wantOK: true,
		},
		{
			name:   "vocabulary word inside markup",
			msg:    model.RawMessage{Body: "<p>Your parcel is <b>out for delivery</b> now</p>"},
			want:   model.StatusOutForDelivery,
			wantOK: true,
		},
		{
			name:   "free-form status label is title-cased",
			msg:    model.RawMessage{Body: "Status: awaiting courier pickup"},
			want:   "Awaiting Courier Pickup",
			wantOK: true,
		},
		{
			name: "subject keyword when body is silent",
			msg: model.RawMessage{
				Subject: "Your parcel has been dispatched",
				Body:    "Greetings from the warehouse team.",
			},
			want:   model.StatusShipped,
			wantOK: true,
		},
		{
			name: "nothing recognizable",
			msg: model.RawMessage{
				Subject: "Greetings",
				Body:    "We hope you enjoy the season.",
			},
			want:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.ExtractStatus(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("ExtractStatus() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
