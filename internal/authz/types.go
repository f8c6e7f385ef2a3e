package authz

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of platform roles. Every principal carries exactly one.
type Role string

const (
	RoleMaster          Role = "MASTER"
	RoleHubManager      Role = "HUB_MANAGER"
	RoleVendorManager   Role = "VENDOR_MANAGER"
	RoleDeliveryManager Role = "DELIVERY_MANAGER"
)

// ParseRole maps a wire value to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleMaster:
		return RoleMaster, nil
	case RoleHubManager:
		return RoleHubManager, nil
	case RoleVendorManager:
		return RoleVendorManager, nil
	case RoleDeliveryManager:
		return RoleDeliveryManager, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CourierType distinguishes couriers moving freight between hubs from couriers
// delivering from a hub to vendors. Present only on DELIVERY_MANAGER principals.
type CourierType string

const (
	CourierHubToHub    CourierType = "HUB_TO_HUB"
	CourierHubToVendor CourierType = "HUB_TO_VENDOR"
)

// ParseCourierType maps a wire value to a CourierType.
func ParseCourierType(s string) (CourierType, error) {
	switch CourierType(strings.ToUpper(strings.TrimSpace(s))) {
	case CourierHubToHub:
		return CourierHubToHub, nil
	case CourierHubToVendor:
		return CourierHubToVendor, nil
	default:
		return "", fmt.Errorf("unknown courier type %q", s)
	}
}

// Action is a CRUD verb applied to a resource.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ParseAction maps a wire value to an Action.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionCreate:
		return ActionCreate, nil
	case ActionRead:
		return ActionRead, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionDelete:
		return ActionDelete, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Resource is the kind of domain object an authorization request targets.
// The engine never dereferences resource identifiers; it only compares their
// owning scope ids against the principal's own.
type Resource string

const (
	ResourceHub             Resource = "HUB"
	ResourceVendor          Resource = "VENDOR"
	ResourceHubPath         Resource = "HUB_PATH"
	ResourceDeliveryManager Resource = "DELIVERY_MANAGER"
	ResourceProduct         Resource = "PRODUCT"
	ResourceOrder           Resource = "ORDER"
	ResourceDelivery        Resource = "DELIVERY"
	ResourceSlack           Resource = "SLACK"
)

// DeliveryAttributes carries courier-specific identity attributes. HUB_TO_VENDOR
// couriers are affiliated with a single hub; HUB_TO_HUB couriers belong to the
// logistics center and carry no hub id.
type DeliveryAttributes struct {
	Type  CourierType
	HubID *uuid.UUID
}

// Principal is the immutable identity snapshot for one authenticated request.
// It is built once from validated token claims and never persisted.
type Principal struct {
	UserID   int64
	Role     Role
	HubID    *uuid.UUID
	VendorID *uuid.UUID
	Courier  *DeliveryAttributes
}

// Request asks whether the principal may perform Action on a Resource whose
// owning scope is the given target ids. Targets are opaque.
type Request struct {
	Resource       Resource   `json:"resource"`
	Action         Action     `json:"action"`
	TargetHubID    *uuid.UUID `json:"target_hub_id,omitempty"`
	TargetVendorID *uuid.UUID `json:"target_vendor_id,omitempty"`
	TargetUserID   *int64     `json:"target_user_id,omitempty"`
}

// Decision is the outcome of one policy evaluation. Reason is populated only
// on deny and is for logs, never for branching.
type Decision struct {
	Permit bool   `json:"permit"`
	Reason string `json:"reason,omitempty"`
}

func permit() Decision { return Decision{Permit: true} }

func deny(reason string) Decision { return Decision{Permit: false, Reason: reason} }
