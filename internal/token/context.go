package token

import "context"

type claimsContextKey struct{}
type rawContextKey struct{}

// ContextWithClaims attaches validated access-token claims to the context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the validated claims if present.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(claimsContextKey{}).(*Claims)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ContextWithRaw stores the raw bearer token inside the context.
func ContextWithRaw(ctx context.Context, raw string) context.Context {
	if raw == "" {
		return ctx
	}
	return context.WithValue(ctx, rawContextKey{}, raw)
}

// RawFromContext returns the bearer token if it was previously attached.
func RawFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(rawContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
