// Package audit emits structured audit events for security-relevant
// operations: sign-in, sign-out, refresh, authorization decisions and
// account status changes.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/obs"
)

// Event names used across the service.
const (
	EventSignIn        = "auth.sign_in"
	EventSignOut       = "auth.sign_out"
	EventRefresh       = "auth.refresh"
	EventSignUp        = "auth.sign_up"
	EventTokenRejected = "auth.token_rejected"
	EventDecision      = "authz.decision"
	EventUserApprove   = "user.approve"
	EventUserReject    = "user.reject"
	EventUserCreate    = "user.create"
	EventPasswordReset = "user.password_reset"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// requestIDFromContext extracts the audit request id from context if present.
func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request and principal context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if p, ok := authz.PrincipalFromContext(ctx); ok {
		entry["user_id"] = p.UserID
		entry["role"] = string(p.Role)
	}
	if len(fields) > 0 {
		copyFields := make(map[string]any, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		entry["fields"] = copyFields
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}
