package extract

import (
	"testing"
	"time"

	"github.com/nhle/order-tracker/internal/model"
)

func TestNormalizeDate(t *testing.T) {
	p := testPipeline()

	dec25 := time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		fragment string
		want     time.Time
		wantOK   bool
	}{
		{"month first slashes", "12/25/2025", dec25, true},
		{"day first slashes", "25/12/2025", dec25, true},
		{"iso hyphens", "2025-12-25", dec25, true},
		{"month first hyphens", "12-25-2025", dec25, true},
		{"day first hyphens", "25-12-2025", dec25, true},
		{"full month name", "December 25, 2025", dec25, true},
		{"short month name", "Dec 25, 2025", dec25, true},
		{"day before full month", "25 December 2025", dec25, true},
		{"day before short month", "25 Dec 2025", dec25, true},
		{"year first slashes", "2025/12/25", dec25, true},
		{"stray punctuation stripped", "Dec 25, 2025!", dec25, true},
		{"today", "today", testNow, true},
		{"tomorrow", "tomorrow", testNow.AddDate(0, 0, 1), true},
		{"upcoming weekday", "Monday", testNow.AddDate(0, 0, 1), true},
		{"weekday inside phrase", "deliver by Friday", testNow.AddDate(0, 0, 5), true},
		{"same weekday rolls a week", "Sunday", testNow.AddDate(0, 0, 7), true},
		{"garbage", "hello world", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.NormalizeDate(tt.fragment)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeDate(%q) ok = %v, want %v", tt.fragment, ok, tt.wantOK)
			}
			if tt.wantOK && !got.Equal(tt.want) {
				t.Errorf("NormalizeDate(%q) = %v, want %v", tt.fragment, got, tt.want)
			}
		})
	}
}

// Every supported layout must survive a render-then-parse round trip.
// The reference date has a day above 12 so month-first and day-first
// layouts cannot be confused for each other.
func TestDateLayoutRoundTrip(t *testing.T) {
	p := testPipeline()
	ref := time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)

	for _, layout := range dateLayouts {
		t.Run(layout, func(t *testing.T) {
			rendered := ref.Format(layout)
			got, ok := p.NormalizeDate(rendered)
			if !ok {
				t.Fatalf("NormalizeDate(%q) failed to parse", rendered)
			}
			gy, gm, gd := got.Date()
			ry, rm, rd := ref.Date()
			if gy != ry || gm != rm || gd != rd {
				t.Errorf("NormalizeDate(%q) = %v, want %v", rendered, got, ref)
			}
		})
	}
}

func TestExtractDeliveryDate(t *testing.T) {
	p := testPipeline()

	tests := []struct {
		name   string
		body   string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "labeled delivery phrase",
			body:   "Thank you. Expected delivery: 12/25/2025.",
			want:   time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "labeled phrase trusted even in the past",
			body:   "Delivery date: 01/05/2025",
			want:   time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "generic scan skips past dates",
			body:   "Purchased on 01/10/2025. Arriving 09/20/2025 latest.",
			want:   time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "generic scan with only past dates",
			body:   "Purchased on 01/10/2025, refunded 02/05/2025.",
			wantOK: false,
		},
		{
			name:   "relative phrase",
			body:   "Your package will arrive by tomorrow.",
			want:   testNow.AddDate(0, 0, 1),
			wantOK: true,
		},
		{
			name:   "weekday phrase",
			body:   "It will be delivered on Friday",
			want:   testNow.AddDate(0, 0, 5),
			wantOK: true,
		},
		{
			name:   "no date anywhere",
			body:   "Thanks for shopping with us.",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.ExtractDeliveryDate(model.RawMessage{Body: tt.body})
			if ok != tt.wantOK {
				t.Fatalf("ExtractDeliveryDate() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && !got.Equal(tt.want) {
				t.Errorf("ExtractDeliveryDate() = %v, want %v", got, tt.want)
			}
		})
	}
}
