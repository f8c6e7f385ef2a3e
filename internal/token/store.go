package token

import (
	"context"
	"errors"
	"time"
)

// ErrNoEntry is returned by CredentialStore lookups when no live entry exists.
var ErrNoEntry = errors.New("token: no credential entry")

// CredentialStore tracks the server-side half of the token lifecycle: one live
// refresh token per subject and a blacklist of revoked subjects. Entries are
// TTL-bound and keyed by user id; refresh and blacklist keyspaces are
// independent, so no multi-key transactions are needed.
type CredentialStore interface {
	// SetRefresh registers the live refresh token for a subject, overwriting
	// any previous one. Overwrite-on-issue is the single-active-session
	// policy, not an accident.
	SetRefresh(ctx context.Context, userID int64, token string, ttl time.Duration) error
	// GetRefresh returns the live refresh token, or ErrNoEntry.
	GetRefresh(ctx context.Context, userID int64) (string, error)
	// DeleteRefresh drops the refresh slot. Deleting an absent slot is not
	// an error.
	DeleteRefresh(ctx context.Context, userID int64) error
	// SetBlacklist marks the subject's access tokens revoked until the TTL
	// elapses.
	SetBlacklist(ctx context.Context, userID int64, ttl time.Duration) error
	// IsBlacklisted reports whether the subject is currently revoked.
	IsBlacklisted(ctx context.Context, userID int64) (bool, error)
}
