package identity

import (
	"time"

	"github.com/google/uuid"

	"logihub.io/userservice/internal/authz"
)

// Status tracks the sign-up approval flow. Only approved accounts can obtain
// tokens.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// User is an account record. HubID and VendorID are scope ids consumed by the
// authorization engine; they are never dereferenced here.
type User struct {
	ID             int64
	Username       string
	PasswordHash   string
	Name           string
	Email          string
	Role           authz.Role
	Status         Status
	SlackAccountID string
	HubID          *uuid.UUID
	VendorID       *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CourierRecord holds courier-specific attributes for DELIVERY_MANAGER
// accounts. HUB_TO_VENDOR couriers are affiliated with one hub; HUB_TO_HUB
// couriers belong to the logistics center and carry none.
type CourierRecord struct {
	UserID       int64
	Type         authz.CourierType
	HubID        *uuid.UUID
	SerialNumber int
	CreatedAt    time.Time
}

// Attributes returns the courier record as the claim-level tagged value.
func (c *CourierRecord) Attributes() *authz.DeliveryAttributes {
	if c == nil {
		return nil
	}
	return &authz.DeliveryAttributes{Type: c.Type, HubID: c.HubID}
}
