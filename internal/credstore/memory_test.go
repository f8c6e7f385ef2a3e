package credstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"logihub.io/userservice/internal/token"
)

func TestMemoryRefreshSlot(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if _, err := store.GetRefresh(ctx, 7); !errors.Is(err, token.ErrNoEntry) {
		t.Fatalf("expected ErrNoEntry, got %v", err)
	}

	if err := store.SetRefresh(ctx, 7, "first", time.Hour); err != nil {
		t.Fatalf("SetRefresh: %v", err)
	}
	// Second login overwrites: only one live refresh token per subject.
	if err := store.SetRefresh(ctx, 7, "second", time.Hour); err != nil {
		t.Fatalf("SetRefresh: %v", err)
	}
	got, err := store.GetRefresh(ctx, 7)
	if err != nil || got != "second" {
		t.Fatalf("GetRefresh = %q, %v", got, err)
	}

	if err := store.DeleteRefresh(ctx, 7); err != nil {
		t.Fatalf("DeleteRefresh: %v", err)
	}
	if _, err := store.GetRefresh(ctx, 7); !errors.Is(err, token.ErrNoEntry) {
		t.Fatalf("expected ErrNoEntry after delete, got %v", err)
	}
	// Deleting an absent slot is not an error.
	if err := store.DeleteRefresh(ctx, 7); err != nil {
		t.Fatalf("DeleteRefresh (absent): %v", err)
	}
}

func TestMemoryBlacklistTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	if err := store.SetBlacklist(ctx, 42, time.Minute); err != nil {
		t.Fatalf("SetBlacklist: %v", err)
	}
	if listed, _ := store.IsBlacklisted(ctx, 42); !listed {
		t.Fatalf("expected blacklisted")
	}
	if listed, _ := store.IsBlacklisted(ctx, 43); listed {
		t.Fatalf("unrelated subject must not be blacklisted")
	}

	// Exact expiry boundary counts as expired.
	now = now.Add(time.Minute)
	if listed, _ := store.IsBlacklisted(ctx, 42); listed {
		t.Fatalf("expected entry to expire with its TTL")
	}
}

func TestMemoryKeyspacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.SetRefresh(ctx, 9, "tok", time.Hour); err != nil {
		t.Fatalf("SetRefresh: %v", err)
	}
	if listed, _ := store.IsBlacklisted(ctx, 9); listed {
		t.Fatalf("refresh entry must not shadow the blacklist keyspace")
	}
	if err := store.SetBlacklist(ctx, 9, time.Hour); err != nil {
		t.Fatalf("SetBlacklist: %v", err)
	}
	if _, err := store.GetRefresh(ctx, 9); err != nil {
		t.Fatalf("blacklisting must not drop the refresh slot: %v", err)
	}
}
