// Package config loads service configuration from the environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// minSecretLen is the minimum decoded HS256 key size in bytes.
const minSecretLen = 32

// Config holds every runtime knob of the user service.
type Config struct {
	ListenAddr string `env:"USERSVC_LISTEN_ADDR" envDefault:":8080"`

	PostgresDSN string `env:"USERSVC_PG_DSN,required"`

	// RedisAddr may be empty in dev mode; credentials then live in an
	// in-process store and do not survive restarts.
	RedisAddr     string `env:"USERSVC_REDIS_ADDR"`
	RedisPassword string `env:"USERSVC_REDIS_PASSWORD"`
	RedisDB       int    `env:"USERSVC_REDIS_DB" envDefault:"0"`

	// JWTSecret is the base64-encoded HS256 signing key.
	JWTSecret string `env:"USERSVC_JWT_SECRET,required"`
	Issuer    string `env:"USERSVC_JWT_ISSUER" envDefault:"logihub-userservice"`

	AccessTTL  time.Duration `env:"USERSVC_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"USERSVC_REFRESH_TTL" envDefault:"336h"`

	RateLimitRPS   float64 `env:"USERSVC_RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"USERSVC_RATE_LIMIT_BURST" envDefault:"100"`

	MaxBodyBytes int64 `env:"USERSVC_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.SecretBytes(); err != nil {
		return err
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return errors.New("config: access lifetime must be shorter than refresh lifetime")
	}
	return nil
}

// SecretBytes decodes the base64 signing key and enforces a minimum size.
func (c *Config) SecretBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("config: jwt secret is not valid base64: %w", err)
	}
	if len(key) < minSecretLen {
		return nil, fmt.Errorf("config: jwt secret must decode to at least %d bytes", minSecretLen)
	}
	return key, nil
}
