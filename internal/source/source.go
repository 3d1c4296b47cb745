package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/order-tracker/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// source. It is returned by source clients when login is rejected or
// an OAuth token can no longer be refreshed.
type AuthError struct {
	SourceType model.SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FetchOptions bounds a single fetch operation.
type FetchOptions struct {
	// Since restricts the fetch to messages received at or after this
	// time. The zero value means no lower bound.
	Since time.Time

	// MaxResults caps the number of messages returned. Zero or
	// negative means the source's own default cap.
	MaxResults int
}

// FetchResult holds one batch of raw messages from a source.
type FetchResult struct {
	Messages  []model.RawMessage
	FetchedAt time.Time
}

// Source defines the contract that every mail integration must
// implement. Sources only read mailboxes; all interpretation of
// message content happens downstream in the extraction pipeline.
type Source interface {
	// ID returns the configured source instance identifier.
	ID() string

	// Type returns the source type identifier.
	Type() model.SourceType

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchMessages retrieves a batch of raw messages.
	FetchMessages(ctx context.Context, opts FetchOptions) (*FetchResult, error)
}
