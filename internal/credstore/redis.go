// Package credstore provides the TTL key-value backends that track live
// refresh tokens and blacklisted subjects.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"logihub.io/userservice/internal/token"
)

const (
	keyRefresh   = "refresh:"
	keyBlacklist = "blacklist:"
)

// Redis implements token.CredentialStore on a Redis instance. All operations
// are single-key and atomic; refresh and blacklist entries for one subject are
// independent keys.
type Redis struct {
	client *redis.Client
}

var _ token.CredentialStore = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, errors.New("credstore: redis client is required")
	}
	return &Redis{client: client}, nil
}

// Ping verifies connectivity, for readiness probes.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) SetRefresh(ctx context.Context, userID int64, tok string, ttl time.Duration) error {
	return r.client.Set(ctx, refreshKey(userID), tok, ttl).Err()
}

func (r *Redis) GetRefresh(ctx context.Context, userID int64) (string, error) {
	val, err := r.client.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", token.ErrNoEntry
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Redis) DeleteRefresh(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, refreshKey(userID)).Err()
}

func (r *Redis) SetBlacklist(ctx context.Context, userID int64, ttl time.Duration) error {
	return r.client.Set(ctx, blacklistKey(userID), "1", ttl).Err()
}

func (r *Redis) IsBlacklisted(ctx context.Context, userID int64) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func refreshKey(userID int64) string { return fmt.Sprintf("%s%d", keyRefresh, userID) }

func blacklistKey(userID int64) string { return fmt.Sprintf("%s%d", keyBlacklist, userID) }
