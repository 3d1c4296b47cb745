package extract

import (
	"regexp"
	"strings"

	"github.com/nhle/order-tracker/internal/model"
)

// dialect names a retailer-specific extraction strategy. The set is
// closed: senders that match no known retailer use the generic
// cascade directly.
type dialect int

const (
	dialectGeneric dialect = iota
	dialectAmazon
	dialectMyntra
)

// dialectFor classifies a sender header into a retailer dialect.
func dialectFor(sender string) dialect {
	s := strings.ToLower(sender)
	switch {
	case strings.Contains(s, "amazon"):
		return dialectAmazon
	case strings.Contains(s, "myntra"):
		return dialectMyntra
	default:
		return dialectGeneric
	}
}

// genericPatterns is the ordered cascade tried for senders outside the
// known retailer dialects (and after a dialect misses). Order matters:
// the first pattern that yields any candidate passing isLikelyOrderID
// wins, so keyworded forms outrank bare shapes.
var genericPatterns = []*regexp.Regexp{
	// Keyworded order forms
	regexp.MustCompile(`(?i)order\s*(?:#|number|id)?\s*:?\s*([a-zA-Z0-9\-_]{4,20})`),
	regexp.MustCompile(`(?i)order\s+([a-zA-Z0-9\-_]{6,20})`),
	regexp.MustCompile(`(?i)order\s*#\s*([a-zA-Z0-9\-_]{4,20})`),

	// Tracking forms
	regexp.MustCompile(`(?i)tracking\s*(?:number|id)?\s*:?\s*([a-zA-Z0-9\-_]{6,25})`),
	regexp.MustCompile(`(?i)track\s*(?:number|id)?\s*:?\s*([a-zA-Z0-9\-_]{6,25})`),

	// Confirmation and reference forms
	regexp.MustCompile(`(?i)confirmation\s*(?:number|id)?\s*:?\s*([a-zA-Z0-9\-_]{4,20})`),
	regexp.MustCompile(`(?i)reference\s*(?:number|id)?\s*:?\s*([a-zA-Z0-9\-_]{4,20})`),

	// Purchase and transaction forms
	regexp.MustCompile(`(?i)purchase\s*(?:number|id)?\s*:?\s*([a-zA-Z0-9\-_]{4,20})`),
	regexp.MustCompile(`(?i)transaction\s*(?:id|number)?\s*:?\s*([a-zA-Z0-9\-_]{4,20})`),

	// Bare hash token
	regexp.MustCompile(`(?i)#([a-zA-Z0-9\-_]{6,20})`),

	// Long numeric runs
	regexp.MustCompile(`([0-9]{8,15})`),

	// Retailer-style shapes as a generic catch-all
	regexp.MustCompile(`([0-9]{3}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)([A-Z][0-9]{2}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)(D[0-9]{2}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`([0-9]{14})`),
	regexp.MustCompile(`(?i)(MYN[0-9]{8,12})`),
	regexp.MustCompile(`([0-9]{10,12})`),

	// Maximally generic alphanumeric shapes
	regexp.MustCompile(`(?i)([A-Z]{2,4}[0-9]{6,12})`),
	regexp.MustCompile(`([0-9]{6,10}-[0-9]{6,10})`),
	regexp.MustCompile(`(?i)([A-Z0-9]{8,15})`),
}

// amazonPatterns is the dialect cascade for Amazon senders: canonical
// shapes after an "order" keyword first, then standalone.
var amazonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)order\s*#?\s*([0-9]{3}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)order\s*#?\s*([A-Z][0-9]{2}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)order\s*#?\s*(D[0-9]{2}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`([0-9]{3}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)([A-Z][0-9]{2}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)(D[0-9]{2}-[0-9]{7}-[0-9]{7})`),
	regexp.MustCompile(`(?i)order\s*#?\s*([0-9]{14})`),
	regexp.MustCompile(`([0-9]{14})`),
}

// myntraPatterns is the dialect cascade for Myntra senders.
var myntraPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)order\s*(?:id|number|#)?\s*:?\s*([0-9]{10,12})`),
	regexp.MustCompile(`(?i)order\s*(?:id|number|#)?\s*:?\s*(MYN[0-9]{8,12})`),
	regexp.MustCompile(`([0-9]{10,12})`),
	regexp.MustCompile(`(?i)(MYN[0-9]{8,12})`),
}

// broadShapePatterns is the first fallback tier when the cascade
// misses: looser identifier shapes, upper-case only, length 6 or more.
var broadShapePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z0-9]{6,})`),
	regexp.MustCompile(`([0-9]{6,})`),
	regexp.MustCompile(`([A-Z]{2,}[0-9]{3,})`),
	regexp.MustCompile(`([0-9]{3,}[A-Z]{2,})`),
}

var (
	// subjectHashPattern finds a #token in the subject line.
	subjectHashPattern = regexp.MustCompile(`#([A-Z0-9\-_]{4,})`)

	// subjectDigitsPattern finds a digit run in the subject line.
	subjectDigitsPattern = regexp.MustCompile(`([0-9]{4,})`)

	// senderDomainPattern captures the domain of a sender address.
	senderDomainPattern = regexp.MustCompile(`@([^>\s]+)`)
)

// cascade keywords that must never be taken as identifiers themselves.
var idStopWords = map[string]bool{
	"order":        true,
	"number":       true,
	"confirmation": true,
	"tracking":     true,
	"purchase":     true,
}

// ExtractOrderID finds the retailer's order identifier in a message.
// Retailer dialects run first, then the generic cascade, then four
// increasingly permissive fallback tiers. Returns false only when
// every tier misses; the synthesizer covers that case at the record
// level.
func (p *Pipeline) ExtractOrderID(msg model.RawMessage) (string, bool) {
	text := messageText(msg)

	switch dialectFor(msg.Sender) {
	case dialectAmazon:
		if id, ok := extractAmazonOrderID(text); ok {
			return id, true
		}
	case dialectMyntra:
		if id, ok := extractMyntraOrderID(text); ok {
			return id, true
		}
	}

	if id, ok := firstCascadeMatch(text); ok {
		return id, true
	}

	// Tier 1: looser shapes anywhere in the text.
	for _, re := range broadShapePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m[1]) >= 6 {
				return m[1], true
			}
		}
	}

	// Tier 2: a #token in the subject alone.
	if m := subjectHashPattern.FindStringSubmatch(msg.Subject); m != nil {
		return m[1], true
	}

	// Tier 3: the first digit run in the subject.
	if m := subjectDigitsPattern.FindStringSubmatch(msg.Subject); m != nil {
		return m[1], true
	}

	// Tier 4: compose an id from sender domain and receive date.
	if id, ok := metadataOrderID(msg); ok {
		return id, true
	}

	return "", false
}

// firstCascadeMatch walks the generic cascade in declared order and
// returns the first candidate that survives the false-positive filter.
func firstCascadeMatch(text string) (string, bool) {
	for _, re := range genericPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if isLikelyOrderID(m[1]) {
				return strings.TrimSpace(m[1]), true
			}
		}
	}
	return "", false
}

// isLikelyOrderID rejects common false positives: tokens under 4
// characters, the cascade keywords themselves, and short numeric runs
// such as quantities or prices.
func isLikelyOrderID(candidate string) bool {
	if len(candidate) < 4 {
		return false
	}
	if idStopWords[strings.ToLower(candidate)] {
		return false
	}
	if isAllDigits(candidate) && len(candidate) < 8 {
		return false
	}
	return true
}

// extractAmazonOrderID tries the Amazon shapes in priority order.
func extractAmazonOrderID(text string) (string, bool) {
	for _, re := range amazonPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// extractMyntraOrderID tries the Myntra shapes in priority order. A
// candidate is accepted only when it is at least 10 characters long,
// guarding against accidental short numeric captures.
func extractMyntraOrderID(text string) (string, bool) {
	for _, re := range myntraPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		id := strings.TrimSpace(m[1])
		if len(id) >= 10 {
			return id, true
		}
	}
	return "", false
}

// metadataOrderID composes a last-resort identifier from the sender
// domain's first label (upper-cased, at most 4 characters) and the
// receive date as MMDD. Requires both a sender and a usable date.
func metadataOrderID(msg model.RawMessage) (string, bool) {
	if msg.Sender == "" || msg.ReceivedAt.IsZero() {
		return "", false
	}

	m := senderDomainPattern.FindStringSubmatch(msg.Sender)
	if m == nil {
		return "", false
	}

	label := strings.ToUpper(strings.SplitN(m[1], ".", 2)[0])
	if r := []rune(label); len(r) > 4 {
		label = string(r[:4])
	}

	return label + msg.ReceivedAt.Format("0102"), true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
