// smoke-auth exercises the token lifecycle against a running instance:
// sign-in, authenticated read, refresh rotation, sign-out, revocation.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	base := os.Getenv("USERSVC_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	username := os.Getenv("USERSVC_SMOKE_USER")
	if username == "" {
		username = "master"
	}
	password := os.Getenv("USERSVC_SMOKE_PASSWORD")
	if password == "" {
		log.Fatal("USERSVC_SMOKE_PASSWORD is required")
	}

	client := &http.Client{Timeout: 5 * time.Second}

	// sign in
	resp := post(client, base+"/v1/auth/sign-in", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	requireStatus(resp, http.StatusOK, "sign-in")
	access := strings.TrimPrefix(resp.Header.Get("Authorization"), "Bearer ")
	refresh := resp.Header.Get("X-Refresh-Token")
	if access == "" || refresh == "" {
		log.Fatal("sign-in did not return token headers")
	}
	drain(resp)

	// authenticated read
	resp = get(client, base+"/v1/users/me", access)
	requireStatus(resp, http.StatusOK, "users/me")
	drain(resp)

	// authorization check: the master principal is permitted everything
	resp = post(client, base+"/v1/internal/authz/check", map[string]any{
		"request": map[string]string{"resource": "HUB", "action": "DELETE"},
	}, map[string]string{"Authorization": "Bearer " + access})
	requireStatus(resp, http.StatusOK, "authz check")
	var decision struct {
		Permit bool `json:"permit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		log.Fatalf("decode decision: %v", err)
	}
	drain(resp)
	if !decision.Permit {
		log.Fatal("authz check: master was denied")
	}

	// refresh rotation supersedes the old refresh token
	resp = post(client, base+"/v1/auth/refresh", nil, map[string]string{"X-Refresh-Token": refresh})
	requireStatus(resp, http.StatusOK, "refresh")
	rotatedAccess := strings.TrimPrefix(resp.Header.Get("Authorization"), "Bearer ")
	drain(resp)

	resp = post(client, base+"/v1/auth/refresh", nil, map[string]string{"X-Refresh-Token": refresh})
	requireStatus(resp, http.StatusUnauthorized, "superseded refresh")
	drain(resp)

	// sign out and verify revocation
	resp = post(client, base+"/v1/auth/sign-out", nil, map[string]string{"Authorization": "Bearer " + rotatedAccess})
	requireStatus(resp, http.StatusNoContent, "sign-out")
	drain(resp)

	resp = get(client, base+"/v1/users/me", rotatedAccess)
	requireStatus(resp, http.StatusUnauthorized, "revoked access")
	drain(resp)

	fmt.Println("auth smoke test passed")
}

func post(client *http.Client, url string, body any, headers map[string]string) *http.Response {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func get(client *http.Client, url, access string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

func requireStatus(resp *http.Response, want int, step string) {
	if resp.StatusCode != want {
		log.Fatalf("%s: status %d, want %d", step, resp.StatusCode, want)
	}
}

func drain(resp *http.Response) {
	_ = resp.Body.Close()
}
