package extract

import (
	"regexp"
	"strings"

	"github.com/nhle/order-tracker/internal/model"
)

// orderPhrases are strong indicators of a transactional order message.
var orderPhrases = []string{
	"order confirmation", "purchase confirmation", "your order",
	"order number", "tracking number", "shipment confirmation",
	"delivery confirmation", "order receipt", "thank you for your order",
	"order placed", "order summary", "order details",
}

// promoPhrases are indicators of marketing content.
var promoPhrases = []string{
	"unsubscribe", "promotional", "sale", "deal", "offer",
	"discount", "newsletter", "marketing", "advertisement",
	"limited time", "save now", "special offer", "free shipping",
	"browse our", "check out our", "new arrivals",
}

// Structural shapes of concrete identifiers. A shape match accepts the
// message even when promotional wording is present.
var (
	orderNumberShape    = regexp.MustCompile(`order\s*(?:#|number|id)?\s*:?\s*[a-zA-Z0-9\-_]{4,}`)
	trackingNumberShape = regexp.MustCompile(`tracking\s*(?:number|id)?\s*:?\s*[a-zA-Z0-9\-_]{6,}`)
)

// IsOrderMessage reports whether the message looks like a genuine
// order notification rather than promotional noise. A message passes
// when it contains an order phrase without any promotional phrase, or
// when it carries an order- or tracking-number-shaped token anywhere
// in subject, body, or sender.
func (p *Pipeline) IsOrderMessage(msg model.RawMessage) bool {
	blob := strings.ToLower(msg.Subject + " " + msg.Body + " " + msg.Sender)

	hasOrderPhrase := containsAny(blob, orderPhrases)
	hasPromoPhrase := containsAny(blob, promoPhrases)

	hasOrderNumber := orderNumberShape.MatchString(blob)
	hasTrackingNumber := trackingNumberShape.MatchString(blob)

	return (hasOrderPhrase && !hasPromoPhrase) || hasOrderNumber || hasTrackingNumber
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
