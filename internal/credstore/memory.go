package credstore

import (
	"context"
	"sync"
	"time"

	"logihub.io/userservice/internal/token"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process token.CredentialStore with per-key TTL. It backs
// tests and single-node dev deployments where no Redis is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

var _ token.CredentialStore = (*Memory)(nil)

// NewMemory constructs an empty store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

// SetClock overrides the time source. Only intended for tests.
func (m *Memory) SetClock(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn != nil {
		m.now = fn
	}
}

func (m *Memory) SetRefresh(_ context.Context, userID int64, tok string, ttl time.Duration) error {
	m.set(refreshKey(userID), tok, ttl)
	return nil
}

func (m *Memory) GetRefresh(_ context.Context, userID int64) (string, error) {
	val, ok := m.get(refreshKey(userID))
	if !ok {
		return "", token.ErrNoEntry
	}
	return val, nil
}

func (m *Memory) DeleteRefresh(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, refreshKey(userID))
	return nil
}

func (m *Memory) SetBlacklist(_ context.Context, userID int64, ttl time.Duration) error {
	m.set(blacklistKey(userID), "1", ttl)
	return nil
}

func (m *Memory) IsBlacklisted(_ context.Context, userID int64) (bool, error) {
	_, ok := m.get(blacklistKey(userID))
	return ok, nil
}

func (m *Memory) set(key, value string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *Memory) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false
	}
	return e.value, true
}
