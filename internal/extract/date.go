package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/nhle/order-tracker/internal/model"
)

// deliveryPhrasePatterns capture the fragment after an explicit
// delivery wording, tried in order.
var deliveryPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)delivery\s+(?:date|by):\s*([^<>\n]+)`),
	regexp.MustCompile(`(?i)expected\s+(?:delivery|arrival):\s*([^<>\n]+)`),
	regexp.MustCompile(`(?i)estimated\s+(?:delivery|arrival):\s*([^<>\n]+)`),
	regexp.MustCompile(`(?i)will\s+(?:arrive|be delivered)\s+(?:by|on)?\s*([^<>\n]+)`),
}

// genericDatePatterns match date-shaped substrings anywhere in the
// text, used when no labeled delivery phrase produced a date.
var genericDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
	regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`([a-zA-Z]+ \d{1,2}, \d{4})`),
	regexp.MustCompile(`(\d{1,2} [a-zA-Z]+ \d{4})`),
}

// dateLayouts is the ordered list of absolute formats NormalizeDate
// attempts. The first layout that parses the whole cleaned fragment
// wins, so month-first forms outrank day-first forms for ambiguous
// dates.
var dateLayouts = []string{
	"1/2/2006",
	"2/1/2006",
	"2006-1-2",
	"1-2-2006",
	"2-1-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006/1/2",
}

// dateCleanPattern removes everything a date fragment cannot contain.
var dateCleanPattern = regexp.MustCompile(`[^\w\s\-/,:]`)

// ExtractDeliveryDate finds the expected delivery time of an order.
// Labeled delivery phrases are trusted as-is; any other date-shaped
// substring counts only when it lies strictly in the future, so the
// message's own send date or past boilerplate dates are not mistaken
// for a delivery estimate. Returns false when no fragment normalizes.
func (p *Pipeline) ExtractDeliveryDate(msg model.RawMessage) (time.Time, bool) {
	text := messageText(msg)

	for _, re := range deliveryPhrasePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if t, ok := p.NormalizeDate(m[1]); ok {
				return t, true
			}
		}
	}

	for _, re := range genericDatePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if t, ok := p.NormalizeDate(m[1]); ok && t.After(p.now()) {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// NormalizeDate parses a free-form date fragment into a concrete time.
// Absolute layouts are tried in order first; failing those, relative
// keywords resolve against the pipeline clock: "today", "tomorrow",
// and weekday names, where a weekday always means the next upcoming
// one and never the current day. Returns false when nothing parses.
func (p *Pipeline) NormalizeDate(fragment string) (time.Time, bool) {
	if fragment == "" {
		return time.Time{}, false
	}

	cleaned := strings.TrimSpace(dateCleanPattern.ReplaceAllString(fragment, ""))

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}

	lower := strings.ToLower(cleaned)
	now := p.now()

	switch {
	case strings.Contains(lower, "today"):
		return now, true
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1), true
	}

	for i, name := range weekdayNames {
		if strings.Contains(lower, name) {
			return nextWeekday(now, time.Weekday(i)), true
		}
	}

	return time.Time{}, false
}

var weekdayNames = []string{
	"sunday", "monday", "tuesday", "wednesday",
	"thursday", "friday", "saturday",
}

// nextWeekday returns the next occurrence of day strictly after now;
// when now already falls on that weekday it rolls a full week forward.
func nextWeekday(now time.Time, day time.Weekday) time.Time {
	ahead := (int(day) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return now.AddDate(0, 0, ahead)
}
