package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"
)

func validSecret() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, 32))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USERSVC_JWT_SECRET", validSecret())
	t.Setenv("USERSVC_PG_DSN", "postgres://localhost/userservice")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("access ttl = %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 336*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.RefreshTTL)
	}
	if key, err := cfg.SecretBytes(); err != nil || len(key) != 32 {
		t.Fatalf("secret bytes: %v (%d)", err, len(key))
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("USERSVC_PG_DSN", "postgres://localhost/userservice")
	t.Setenv("USERSVC_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without signing key")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("USERSVC_PG_DSN", "postgres://localhost/userservice")
	t.Setenv("USERSVC_JWT_SECRET", base64.StdEncoding.EncodeToString([]byte("too-short")))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for short signing key")
	}
}

func TestLoadRejectsInvertedLifetimes(t *testing.T) {
	t.Setenv("USERSVC_PG_DSN", "postgres://localhost/userservice")
	t.Setenv("USERSVC_JWT_SECRET", validSecret())
	t.Setenv("USERSVC_ACCESS_TTL", "24h")
	t.Setenv("USERSVC_REFRESH_TTL", "1h")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when access outlives refresh")
	}
}
