package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nhle/order-tracker/internal/model"
)

var (
	// bracketedAddress captures the address inside <...> and its domain.
	bracketedAddress = regexp.MustCompile(`<([^@]+@([^>]+))>`)

	// domainPrefixPattern matches one leading mailer subdomain.
	domainPrefixPattern = regexp.MustCompile(`^(www\.|mail\.|noreply\.|no-reply\.)`)

	// domainTLDPattern matches a trailing common TLD.
	domainTLDPattern = regexp.MustCompile(`\.(com|org|net|co\.uk|in)$`)
)

// ExtractSeller derives a human-readable seller name from the raw
// "From" header. The display name wins when present and readable;
// otherwise the address domain is cleaned into a name. A sender with
// no address at all is returned verbatim. Never returns an empty
// string.
func (p *Pipeline) ExtractSeller(msg model.RawMessage) string {
	sender := msg.Sender

	if strings.Contains(sender, "<") && strings.Contains(sender, ">") {
		if idx := strings.Index(sender, "<"); idx > 0 {
			name := strings.Trim(strings.TrimSpace(sender[:idx]), `"`)
			// Skip MIME encoded-word names; they are unreadable as-is.
			if name != "" && !strings.HasPrefix(name, "=?") {
				return name
			}
		}
		if m := bracketedAddress.FindStringSubmatch(sender); m != nil {
			return cleanDomain(m[2])
		}
	}

	if strings.Contains(sender, "@") {
		parts := strings.Split(sender, "@")
		domain := strings.TrimSuffix(parts[len(parts)-1], ">")
		return cleanDomain(domain)
	}

	if sender == "" {
		return model.SellerUnknown
	}
	return sender
}

// cleanDomain reduces a sender domain to a display name: leading
// mailer subdomains are stripped repeatedly, a trailing common TLD is
// removed, and the remainder is title-cased.
func cleanDomain(domain string) string {
	for {
		stripped := domainPrefixPattern.ReplaceAllString(domain, "")
		if stripped == domain {
			break
		}
		domain = stripped
	}

	domain = domainTLDPattern.ReplaceAllString(domain, "")

	if domain == "" {
		return model.SellerUnknown
	}
	return titleCase(domain)
}

// titleCase upper-cases the first letter of every word and lower-cases
// the rest, treating any non-letter as a word boundary.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}

	return b.String()
}
