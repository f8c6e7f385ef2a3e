package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/users/42":                  "/v1/users/:id",
		"/v1/users/42?verbose=1":        "/v1/users/:id",
		"/v1/users/me":                  "/v1/users/me",
		"/v1/users/approve":             "/v1/users/approve",
		"/v1/auth/sign-in":              "/v1/auth/sign-in",
		"/v1/internal/authz/check":      "/v1/internal/authz/check",
		"/v1/auth/sign-in?redirect=app": "/v1/auth/sign-in",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
