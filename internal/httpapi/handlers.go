// Package httpapi is the HTTP surface of the user service: authentication,
// account administration and the internal authorization check endpoint.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"logihub.io/userservice/api/spec"
	"logihub.io/userservice/internal/identity"
	"logihub.io/userservice/internal/obs"
	"logihub.io/userservice/internal/token"
)

// Pinger is the readiness view of the credential store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the service's backing stores.
type ReadyProbe struct {
	DB    *sql.DB
	Creds Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB != nil {
		if err := rp.DB.PingContext(ctx); err != nil {
			return err
		}
	}
	if rp.Creds != nil {
		if err := rp.Creds.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Options carries the wired dependencies for New.
type Options struct {
	Ready    ReadyProbe
	Version  string
	Tokens   *token.Manager
	Identity *identity.Service
	Resolver *identity.Resolver

	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// API is the HTTP layer.
type API struct {
	mux      *http.ServeMux
	ready    ReadyProbe
	version  string
	tokens   *token.Manager
	identity *identity.Service
	resolver *identity.Resolver

	maxBody   int64
	rateRPS   float64
	rateBurst int
}

// New wires the routes. Every dependency is required except the ready probe.
func New(opts Options) (*API, error) {
	if opts.Tokens == nil {
		return nil, errors.New("httpapi: token manager is required")
	}
	if opts.Identity == nil {
		return nil, errors.New("httpapi: identity service is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("httpapi: principal resolver is required")
	}
	a := &API{
		mux:       http.NewServeMux(),
		ready:     opts.Ready,
		version:   opts.Version,
		tokens:    opts.Tokens,
		identity:  opts.Identity,
		resolver:  opts.Resolver,
		maxBody:   opts.MaxBodyBytes,
		rateRPS:   opts.RateLimitRPS,
		rateBurst: opts.RateLimitBurst,
	}
	if a.maxBody <= 0 {
		a.maxBody = 1 << 20
	}
	if a.rateRPS <= 0 {
		a.rateRPS = 50
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 100
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// OpenAPI YAML
	a.mux.HandleFunc("/openapi.yaml", a.OpenAPISpec)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication lifecycle
	a.mux.HandleFunc("/v1/auth/sign-up", a.handleSignUp)
	a.mux.HandleFunc("/v1/auth/sign-in", a.handleSignIn)
	a.mux.HandleFunc("/v1/auth/sign-out", a.handleSignOut)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/find-id", a.handleFindID)
	a.mux.HandleFunc("/v1/auth/find-pw", a.handleFindPassword)

	// authorization decisions for sibling services
	a.mux.HandleFunc("/v1/internal/authz/check", a.handleAuthzCheck)

	// account administration
	a.mux.HandleFunc("/v1/users", a.handleCreateUser)
	a.mux.HandleFunc("/v1/users/me", a.handleMe)
	a.mux.HandleFunc("/v1/users/approve", a.handleApprove)
	a.mux.HandleFunc("/v1/users/reject", a.handleReject)
	a.mux.HandleFunc("/v1/users/", a.handleUserByID)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBody)
	h = RateLimit(h, a.rateBurst, a.rateRPS)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "userservice",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "userservice",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
