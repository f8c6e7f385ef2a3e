package identity

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/token"
)

func accessClaims(userID int64, role authz.Role) *token.Claims {
	return &token.Claims{
		Role:      string(role),
		TokenType: token.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(userID, 10),
		},
	}
}

func TestResolveFromClaimsOnly(t *testing.T) {
	couriers := newFakeCourierStore()
	resolver, err := NewResolver(couriers)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	hub := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	claims := accessClaims(42, authz.RoleHubManager)
	claims.HubID = &hub

	p, err := resolver.Resolve(context.Background(), claims)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.UserID != 42 || p.Role != authz.RoleHubManager {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.HubID == nil || *p.HubID != hub {
		t.Fatalf("hub id not carried over")
	}
	if p.Courier != nil {
		t.Fatalf("non-courier principal must have no delivery attributes")
	}
}

func TestResolveCourierLooksUpRecord(t *testing.T) {
	couriers := newFakeCourierStore()
	hub := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	_ = couriers.Create(context.Background(), &CourierRecord{
		UserID: 9,
		Type:   authz.CourierHubToVendor,
		HubID:  &hub,
	})
	resolver, err := NewResolver(couriers)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	p, err := resolver.Resolve(context.Background(), accessClaims(9, authz.RoleDeliveryManager))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Courier == nil || p.Courier.Type != authz.CourierHubToVendor {
		t.Fatalf("courier attributes missing: %+v", p.Courier)
	}
	// HUB_TO_VENDOR couriers inherit their affiliated hub as scope.
	if p.HubID == nil || *p.HubID != hub {
		t.Fatalf("affiliated hub not applied: %v", p.HubID)
	}
}

func TestResolveCourierWithoutRecordFails(t *testing.T) {
	resolver, err := NewResolver(newFakeCourierStore())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	_, err = resolver.Resolve(context.Background(), accessClaims(9, authz.RoleDeliveryManager))
	if !errors.Is(err, ErrCourierRecordMissing) {
		t.Fatalf("err = %v, want ErrCourierRecordMissing", err)
	}
}

func TestResolveRejectsUnknownRole(t *testing.T) {
	resolver, err := NewResolver(newFakeCourierStore())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	claims := accessClaims(9, authz.Role("INTERN"))
	if _, err := resolver.Resolve(context.Background(), claims); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
