package authz

// The policy is a static table, not code: one row per (resource, role) with an
// action set and a scope guard. Keeping it data-driven makes every rule
// individually testable and auditable.

type guard int

const (
	// guardNone permits regardless of targets.
	guardNone guard = iota
	// guardSameHub requires target_hub_id to equal the principal's hub id.
	guardSameHub
	// guardSameVendor requires target_vendor_id to equal the principal's vendor id.
	guardSameVendor
	// guardSelf requires target_user_id to equal the principal's user id.
	guardSelf
)

type rule struct {
	actions []Action
	guard   guard
}

func (r rule) allows(a Action) bool {
	for _, act := range r.actions {
		if act == a {
			return true
		}
	}
	return false
}

var crud = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// policy holds every non-MASTER rule. A (resource, role, action) triple with no
// matching rule denies. Rules within one role have disjoint action sets.
var policy = map[Resource]map[Role][]rule{
	ResourceHub: {
		RoleHubManager:      {{actions: []Action{ActionRead}}},
		RoleVendorManager:   {{actions: []Action{ActionRead}}},
		RoleDeliveryManager: {{actions: []Action{ActionRead}}},
	},
	ResourceHubPath: {
		RoleHubManager:      {{actions: []Action{ActionRead}}},
		RoleVendorManager:   {{actions: []Action{ActionRead}}},
		RoleDeliveryManager: {{actions: []Action{ActionRead}}},
	},
	ResourceVendor: {
		RoleHubManager: {{actions: crud, guard: guardSameHub}},
		RoleVendorManager: {
			{actions: []Action{ActionRead}},
			{actions: []Action{ActionUpdate}, guard: guardSameVendor},
		},
		RoleDeliveryManager: {{actions: []Action{ActionRead}}},
	},
	ResourceProduct: {
		RoleHubManager: {{actions: crud, guard: guardSameHub}},
		RoleVendorManager: {
			{actions: []Action{ActionRead}},
			{actions: []Action{ActionCreate, ActionUpdate}, guard: guardSameVendor},
		},
		RoleDeliveryManager: {{actions: []Action{ActionRead}}},
	},
	ResourceDeliveryManager: {
		RoleHubManager:      {{actions: crud, guard: guardSameHub}},
		RoleDeliveryManager: {{actions: []Action{ActionRead}, guard: guardSelf}},
	},
	ResourceOrder: {
		RoleHubManager: {
			{actions: []Action{ActionCreate}},
			{actions: []Action{ActionRead, ActionUpdate, ActionDelete}, guard: guardSameHub},
		},
		RoleVendorManager: {
			{actions: []Action{ActionCreate}},
			{actions: []Action{ActionRead}, guard: guardSelf},
		},
		RoleDeliveryManager: {
			{actions: []Action{ActionCreate}},
			{actions: []Action{ActionRead}, guard: guardSelf},
		},
	},
	ResourceDelivery: {
		RoleHubManager: {{actions: []Action{ActionRead, ActionUpdate, ActionDelete}, guard: guardSameHub}},
		RoleVendorManager: {
			{actions: []Action{ActionRead}},
		},
		RoleDeliveryManager: {
			{actions: []Action{ActionRead}},
			{actions: []Action{ActionUpdate}, guard: guardSelf},
		},
	},
	ResourceSlack: {
		RoleHubManager:      {{actions: []Action{ActionCreate}}},
		RoleVendorManager:   {{actions: []Action{ActionCreate}}},
		RoleDeliveryManager: {{actions: []Action{ActionCreate}}},
	},
}

// Decide evaluates one authorization request against the policy table.
// Pure and deterministic: no I/O, safe for unlimited concurrent use.
func Decide(p Principal, req Request) Decision {
	if p.Role == RoleMaster {
		return permit()
	}

	byRole, ok := policy[req.Resource]
	if !ok {
		return deny("unknown resource")
	}
	rules, ok := byRole[p.Role]
	if !ok {
		return deny("role has no access to resource")
	}
	for _, r := range rules {
		if !r.allows(req.Action) {
			continue
		}
		return evalGuard(r.guard, p, req)
	}
	return deny("action not permitted for role")
}

func evalGuard(g guard, p Principal, req Request) Decision {
	switch g {
	case guardNone:
		return permit()
	case guardSameHub:
		// An absent id on either side is a deny, never a wildcard.
		if p.HubID == nil || req.TargetHubID == nil {
			return deny("hub scope missing")
		}
		if *p.HubID != *req.TargetHubID {
			return deny("hub scope mismatch")
		}
		return permit()
	case guardSameVendor:
		if p.VendorID == nil || req.TargetVendorID == nil {
			return deny("vendor scope missing")
		}
		if *p.VendorID != *req.TargetVendorID {
			return deny("vendor scope mismatch")
		}
		return permit()
	case guardSelf:
		if req.TargetUserID == nil {
			return deny("target user missing")
		}
		if *req.TargetUserID != p.UserID {
			return deny("not the requesting user")
		}
		return permit()
	default:
		return deny("unknown scope guard")
	}
}
