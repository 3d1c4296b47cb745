package extract

import (
	"regexp"
	"strings"

	"github.com/nhle/order-tracker/internal/model"
)

// statusPatterns is tried in order: the closed vocabulary of known
// status words, then explicit status labels.
var statusPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(shipped|delivered|out for delivery|in transit|processing|confirmed|cancelled|pending)`),
	regexp.MustCompile(`(?i)status:\s*([^<>\n]+)`),
	regexp.MustCompile(`(?i)order\s+status:\s*([^<>\n]+)`),
}

// canonicalStatus maps vocabulary words to their canonical labels.
var canonicalStatus = map[string]string{
	"shipped":          model.StatusShipped,
	"delivered":        model.StatusDelivered,
	"out for delivery": model.StatusOutForDelivery,
	"in transit":       model.StatusInTransit,
	"processing":       model.StatusProcessing,
	"confirmed":        model.StatusConfirmed,
	"cancelled":        model.StatusCancelled,
	"pending":          model.StatusPending,
}

// subjectStatusKeywords maps subject substrings to canonical labels,
// checked in declaration order when no body pattern matched.
var subjectStatusKeywords = []struct {
	keyword string
	status  string
}{
	{"shipped", model.StatusShipped},
	{"delivered", model.StatusDelivered},
	{"confirmed", model.StatusConfirmed},
	{"processing", model.StatusProcessing},
	{"cancelled", model.StatusCancelled},
	{"dispatched", model.StatusShipped},
	{"out for delivery", model.StatusOutForDelivery},
}

// ExtractStatus finds a human-readable order status. Known vocabulary
// words map to their canonical labels; free-form "status:" values are
// title-cased as written. Returns false when nothing matched.
func (p *Pipeline) ExtractStatus(msg model.RawMessage) (string, bool) {
	text := messageText(msg)

	for _, re := range statusPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		if canon, ok := canonicalStatus[strings.ToLower(value)]; ok {
			return canon, true
		}
		return titleCase(value), true
	}

	subject := strings.ToLower(msg.Subject)
	for _, kw := range subjectStatusKeywords {
		if strings.Contains(subject, kw.keyword) {
			return kw.status, true
		}
	}

	return "", false
}
