package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"logihub.io/userservice/internal/config"
	"logihub.io/userservice/internal/credstore"
	"logihub.io/userservice/internal/httpapi"
	"logihub.io/userservice/internal/identity"
	"logihub.io/userservice/internal/obs"
	"logihub.io/userservice/internal/store/pg"
	"logihub.io/userservice/internal/token"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	log.SetFlags(0)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	secret, err := cfg.SecretBytes()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	// Credential store: Redis in production, in-process in dev.
	var (
		creds      token.CredentialStore
		credsProbe httpapi.Pinger
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rstore, err := credstore.NewRedis(client)
		if err != nil {
			log.Fatalf("credstore: %v", err)
		}
		creds = rstore
		credsProbe = rstore
	} else {
		log.Printf("warning: no redis configured, credentials will not survive restarts")
		creds = credstore.NewMemory()
	}

	codec, err := token.NewCodec(secret, cfg.Issuer,
		token.WithAccessTTL(cfg.AccessTTL),
		token.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	tokens, err := token.NewManager(codec, creds)
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}
	svc, err := identity.NewService(store, store.Couriers())
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}
	resolver, err := identity.NewResolver(store.Couriers())
	if err != nil {
		log.Fatalf("principal resolver: %v", err)
	}

	api, err := httpapi.New(httpapi.Options{
		Ready:          httpapi.ReadyProbe{DB: store.DB(), Creds: credsProbe},
		Version:        version,
		Tokens:         tokens,
		Identity:       svc,
		Resolver:       resolver,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	if err != nil {
		log.Fatalf("httpapi: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting userservice %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
