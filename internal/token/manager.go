package token

import (
	"context"
	"errors"
	"time"
)

// Pair is the access/refresh credential pair returned at login.
type Pair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Manager orchestrates the token lifecycle: issue at login, validate per
// request, revoke at logout. Access tokens are stateless; only the refresh
// slot and the blacklist live in the credential store.
type Manager struct {
	codec *Codec
	store CredentialStore
	now   func() time.Time
}

// NewManager constructs a Manager.
func NewManager(codec *Codec, store CredentialStore) (*Manager, error) {
	if codec == nil {
		return nil, errors.New("token: codec is required")
	}
	if store == nil {
		return nil, errors.New("token: credential store is required")
	}
	return &Manager{codec: codec, store: store, now: codec.now}, nil
}

// Issue signs an access/refresh pair and registers the refresh token as the
// subject's live slot. A store failure aborts the login: a token that was not
// durably registered is never returned.
func (m *Manager) Issue(ctx context.Context, sub Subject) (Pair, error) {
	access, accessExp, err := m.codec.SignAccess(sub)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := m.codec.SignRefresh(sub.UserID)
	if err != nil {
		return Pair{}, err
	}
	ttl := refreshExp.Sub(m.now().UTC())
	// Registration must complete even if the inbound request is cancelled
	// mid-login; a half-issued pair violates the lifecycle contract.
	if err := m.store.SetRefresh(context.WithoutCancel(ctx), sub.UserID, refresh, ttl); err != nil {
		return Pair{}, err
	}
	return Pair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate parses the token and requires the given type. Signature, issuer,
// and expiry only; revocation is checked separately via IsBlacklisted so the
// two failure modes stay distinguishable.
func (m *Manager) Validate(raw string, typ Type) (*Claims, error) {
	claims, err := m.codec.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// IsBlacklisted reports whether the subject of a validated access token has
// been revoked. Callers must invoke this on every authenticated request and
// treat a store error as revoked (fail closed).
func (m *Manager) IsBlacklisted(ctx context.Context, claims *Claims) (bool, error) {
	userID, err := claims.UserID()
	if err != nil {
		return true, err
	}
	return m.store.IsBlacklisted(ctx, userID)
}

// Revoke blacklists the subject for the access token's remaining lifetime and
// drops the refresh slot. Both effects always run, both are idempotent, and
// neither is skipped on request cancellation.
func (m *Manager) Revoke(ctx context.Context, access *Claims) error {
	userID, err := access.UserID()
	if err != nil {
		return err
	}
	ttl := time.Second
	if access.ExpiresAt != nil {
		if remaining := access.ExpiresAt.Time.Sub(m.now().UTC()); remaining > ttl {
			ttl = remaining
		}
	}
	ctx = context.WithoutCancel(ctx)
	blacklistErr := m.store.SetBlacklist(ctx, userID, ttl)
	refreshErr := m.store.DeleteRefresh(ctx, userID)
	return errors.Join(blacklistErr, refreshErr)
}

// VerifyRefresh validates a refresh token and checks it is the subject's live
// slot. A superseded or revoked refresh token fails as invalid even when its
// signature and expiry still hold.
func (m *Manager) VerifyRefresh(ctx context.Context, raw string) (*Claims, error) {
	claims, err := m.Validate(raw, TypeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	live, err := m.store.GetRefresh(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoEntry) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if live != raw {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
