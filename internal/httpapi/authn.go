package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"logihub.io/userservice/internal/audit"
	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/identity"
	"logihub.io/userservice/internal/token"
)

const (
	authHeader    = "Authorization"
	bearer        = "Bearer "
	refreshHeader = "X-Refresh-Token"
)

var publicPaths = []string{
	"/v1/auth/sign-up",
	"/v1/auth/sign-in",
	"/v1/auth/refresh",
	"/v1/auth/find-id",
	"/v1/auth/find-pw",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/openapi.yaml",
	"/",
}

// withAuth validates the bearer token, checks revocation and resolves the
// principal before any protected handler runs. Revocation is checked on every
// request; a credential-store outage fails closed.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.tokens.Validate(raw, token.TypeAccess)
		if err != nil {
			rejectToken(w, r, err.Error())
			return
		}

		revoked, err := a.tokens.IsBlacklisted(r.Context(), claims)
		if err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "credential store unavailable")
			return
		}
		if revoked {
			rejectToken(w, r, "subject blacklisted")
			return
		}

		principal, err := a.resolver.Resolve(r.Context(), claims)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrInvalidToken), errors.Is(err, identity.ErrCourierRecordMissing):
				rejectToken(w, r, err.Error())
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := authz.ContextWithPrincipal(r.Context(), principal)
		ctx = token.ContextWithClaims(ctx, claims)
		ctx = token.ContextWithRaw(ctx, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rejectToken answers every token failure with the same unauthenticated
// response. Expired, malformed, wrong-type and revoked tokens must be
// indistinguishable to the client; the precise cause goes to the audit log
// only.
func rejectToken(w http.ResponseWriter, r *http.Request, cause string) {
	_ = audit.LogEvent(r.Context(), audit.EventTokenRejected, map[string]any{
		"cause": cause,
		"path":  r.URL.Path,
	})
	writeError(w, r, http.StatusUnauthorized, "invalid token")
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	raw := strings.TrimSpace(header[len(bearer):])
	if raw == "" {
		return "", errors.New("missing bearer token")
	}
	return raw, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// requireMaster gates the administrative endpoints.
func requireMaster(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return authz.Principal{}, false
	}
	if p.Role != authz.RoleMaster {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return authz.Principal{}, false
	}
	return p, true
}
