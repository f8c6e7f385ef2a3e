package identity

import (
	"context"
	"errors"

	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/token"
)

// Resolver turns validated access-token claims into an authorization
// principal. Role and scope ids are read straight from the claims (the token
// was just validated, no lookup needed); only couriers require one store
// round-trip for their courier attributes.
type Resolver struct {
	couriers CourierStore
}

// NewResolver constructs a Resolver.
func NewResolver(couriers CourierStore) (*Resolver, error) {
	if couriers == nil {
		return nil, errors.New("identity: courier store is required")
	}
	return &Resolver{couriers: couriers}, nil
}

// Resolve builds the per-request principal from access-token claims. A
// DELIVERY_MANAGER token without a courier record is an inconsistent state
// and fails with ErrCourierRecordMissing.
func (r *Resolver) Resolve(ctx context.Context, claims *token.Claims) (authz.Principal, error) {
	userID, err := claims.UserID()
	if err != nil {
		return authz.Principal{}, err
	}
	role, err := authz.ParseRole(claims.Role)
	if err != nil {
		return authz.Principal{}, token.ErrInvalidToken
	}
	p := authz.Principal{
		UserID:   userID,
		Role:     role,
		HubID:    claims.HubID,
		VendorID: claims.VendorID,
	}
	if role != authz.RoleDeliveryManager {
		return p, nil
	}

	rec, err := r.couriers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return authz.Principal{}, ErrCourierRecordMissing
		}
		return authz.Principal{}, err
	}
	p.Courier = rec.Attributes()
	if rec.Type == authz.CourierHubToVendor {
		p.HubID = rec.HubID
	}
	return p, nil
}
