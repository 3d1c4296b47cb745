package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/nhle/order-tracker/internal/credential"
)

// TokenStore persists OAuth tokens between runs, keyed by source
// instance.
type TokenStore interface {
	LoadToken(sourceID string) (*oauth2.Token, error)
	SaveToken(sourceID string, tok *oauth2.Token) error
}

// KeyringTokenStore stores OAuth tokens as JSON in the system keyring.
type KeyringTokenStore struct{}

// LoadToken retrieves and decodes the cached token for a source.
func (KeyringTokenStore) LoadToken(sourceID string) (*oauth2.Token, error) {
	raw, err := credential.Get(credential.TokenKey(sourceID))
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("parsing cached token: %w", err)
	}

	return &tok, nil
}

// SaveToken encodes and stores the token for a source.
func (KeyringTokenStore) SaveToken(sourceID string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return credential.Set(credential.TokenKey(sourceID), string(data))
}

// readOAuthConfig loads the OAuth client configuration from a Google
// Cloud credentials JSON file, scoped to read-only Gmail access.
func readOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(creds, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	return cfg, nil
}

// Authorize runs the manual OAuth consent flow for a Gmail source and
// stores the resulting token. promptFn receives the consent URL and
// must return the authorization code the user obtained from it.
func Authorize(
	ctx context.Context,
	credentialsPath, sourceID string,
	tokens TokenStore,
	promptFn func(authURL string) (string, error),
) error {
	cfg, err := readOAuthConfig(credentialsPath)
	if err != nil {
		return err
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := promptFn(authURL)
	if err != nil {
		return err
	}

	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	return tokens.SaveToken(sourceID, tok)
}

// orderSearchTerms narrow the server-side Gmail search to likely order
// mail. The classifier still filters what comes back.
var orderSearchTerms = []string{
	"order confirmation",
	"purchase confirmation",
	"your order",
	"order number",
	"tracking number",
	"shipment confirmation",
	"delivery confirmation",
	"order receipt",
	"thank you for your order",
}

// promoExcludeTerms are excluded outright in the Gmail search.
var promoExcludeTerms = []string{
	"unsubscribe",
	"promotional",
	"sale",
	"deal",
	"offer",
	"discount",
	"newsletter",
}

// searchQuery builds the Gmail search expression for order mail
// received since the given time.
func searchQuery(since time.Time) string {
	quoted := make([]string, len(orderSearchTerms))
	for i, term := range orderSearchTerms {
		quoted[i] = `"` + term + `"`
	}

	var b strings.Builder
	if !since.IsZero() {
		fmt.Fprintf(&b, "after:%s ", since.Format("2006/01/02"))
	}
	b.WriteString("(" + strings.Join(quoted, " OR ") + ")")
	for _, term := range promoExcludeTerms {
		b.WriteString(" -" + term)
	}

	return b.String()
}
