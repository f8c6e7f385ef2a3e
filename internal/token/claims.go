package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"logihub.io/userservice/internal/authz"
)

// Type discriminates the two credentials the service issues.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the signed payload shared by access and refresh tokens. Refresh
// tokens carry only the registered claims plus token_type; access tokens carry
// the full identity snapshot so no session lookup is needed per request.
type Claims struct {
	PreferredUsername string     `json:"preferred_username,omitempty"`
	Role              string     `json:"role,omitempty"`
	Perms             []string   `json:"perms,omitempty"`
	HubID             *uuid.UUID `json:"hub_id,omitempty"`
	VendorID          *uuid.UUID `json:"vendor_id,omitempty"`
	TokenType         Type       `json:"token_type"`

	// Courier attributes travel together: either both absent or type present
	// with an optional affiliated hub (HUB_TO_HUB couriers have none).
	DeliveryType  string     `json:"delivery_type,omitempty"`
	DeliveryHubID *uuid.UUID `json:"delivery_hub_id,omitempty"`

	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Delivery returns the courier attributes as a tagged value, or nil when the
// token does not belong to a courier.
func (c *Claims) Delivery() (*authz.DeliveryAttributes, error) {
	if c.DeliveryType == "" {
		return nil, nil
	}
	ct, err := authz.ParseCourierType(c.DeliveryType)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &authz.DeliveryAttributes{Type: ct, HubID: c.DeliveryHubID}, nil
}

// Subject is the identity snapshot baked into an access token at issue time.
type Subject struct {
	UserID   int64
	Username string
	Role     authz.Role
	Perms    []string
	HubID    *uuid.UUID
	VendorID *uuid.UUID
	Courier  *authz.DeliveryAttributes
}
