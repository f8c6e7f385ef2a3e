package authz

import (
	"testing"

	"github.com/google/uuid"
)

var (
	hubA    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	hubB    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	vendorA = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	vendorB = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func hubManager(hub uuid.UUID) Principal {
	return Principal{UserID: 10, Role: RoleHubManager, HubID: &hub}
}

func vendorManager(vendor uuid.UUID) Principal {
	return Principal{UserID: 20, Role: RoleVendorManager, VendorID: &vendor}
}

func courier(id int64) Principal {
	return Principal{UserID: id, Role: RoleDeliveryManager, Courier: &DeliveryAttributes{Type: CourierHubToHub}}
}

func userRef(id int64) *int64 { return &id }

func TestMasterPermitsEverything(t *testing.T) {
	master := Principal{UserID: 1, Role: RoleMaster}
	resources := []Resource{
		ResourceHub, ResourceVendor, ResourceHubPath, ResourceDeliveryManager,
		ResourceProduct, ResourceOrder, ResourceDelivery, ResourceSlack,
		Resource("SOMETHING_ELSE"),
	}
	for _, res := range resources {
		for _, act := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
			d := Decide(master, Request{Resource: res, Action: act})
			if !d.Permit {
				t.Fatalf("master denied %s %s: %s", act, res, d.Reason)
			}
		}
	}
}

func TestUnknownResourceDenies(t *testing.T) {
	d := Decide(hubManager(hubA), Request{Resource: "WAREHOUSE", Action: ActionRead})
	if d.Permit {
		t.Fatalf("expected deny for unknown resource")
	}
	if d.Reason == "" {
		t.Fatalf("deny must carry a reason")
	}
}

func TestPolicyTable(t *testing.T) {
	cases := []struct {
		name      string
		principal Principal
		req       Request
		permit    bool
	}{
		// HUB / HUB_PATH: read-only for every non-master role.
		{"hub read hub manager", hubManager(hubA), Request{Resource: ResourceHub, Action: ActionRead}, true},
		{"hub update hub manager", hubManager(hubA), Request{Resource: ResourceHub, Action: ActionUpdate}, false},
		{"hub read vendor manager", vendorManager(vendorA), Request{Resource: ResourceHub, Action: ActionRead}, true},
		{"hub delete courier", courier(30), Request{Resource: ResourceHub, Action: ActionDelete}, false},
		{"hub path read courier", courier(30), Request{Resource: ResourceHubPath, Action: ActionRead}, true},
		{"hub path create vendor manager", vendorManager(vendorA), Request{Resource: ResourceHubPath, Action: ActionCreate}, false},

		// VENDOR.
		{"vendor create own hub", hubManager(hubA), Request{Resource: ResourceVendor, Action: ActionCreate, TargetHubID: &hubA}, true},
		{"vendor create other hub", hubManager(hubA), Request{Resource: ResourceVendor, Action: ActionCreate, TargetHubID: &hubB}, false},
		{"vendor delete own hub", hubManager(hubA), Request{Resource: ResourceVendor, Action: ActionDelete, TargetHubID: &hubA}, true},
		{"vendor create no target hub", hubManager(hubA), Request{Resource: ResourceVendor, Action: ActionCreate}, false},
		{"vendor read any vendor manager", vendorManager(vendorA), Request{Resource: ResourceVendor, Action: ActionRead}, true},
		{"vendor update own vendor", vendorManager(vendorA), Request{Resource: ResourceVendor, Action: ActionUpdate, TargetVendorID: &vendorA}, true},
		{"vendor update other vendor", vendorManager(vendorA), Request{Resource: ResourceVendor, Action: ActionUpdate, TargetVendorID: &vendorB}, false},
		{"vendor update no target", vendorManager(vendorA), Request{Resource: ResourceVendor, Action: ActionUpdate}, false},
		{"vendor delete vendor manager", vendorManager(vendorA), Request{Resource: ResourceVendor, Action: ActionDelete, TargetVendorID: &vendorA}, false},
		{"vendor read courier", courier(30), Request{Resource: ResourceVendor, Action: ActionRead}, true},
		{"vendor update courier", courier(30), Request{Resource: ResourceVendor, Action: ActionUpdate}, false},

		// PRODUCT.
		{"product update own hub", hubManager(hubA), Request{Resource: ResourceProduct, Action: ActionUpdate, TargetHubID: &hubA}, true},
		{"product update other hub", hubManager(hubA), Request{Resource: ResourceProduct, Action: ActionUpdate, TargetHubID: &hubB}, false},
		{"product read vendor manager", vendorManager(vendorA), Request{Resource: ResourceProduct, Action: ActionRead}, true},
		{"product create own vendor", vendorManager(vendorA), Request{Resource: ResourceProduct, Action: ActionCreate, TargetVendorID: &vendorA}, true},
		{"product create other vendor", vendorManager(vendorA), Request{Resource: ResourceProduct, Action: ActionCreate, TargetVendorID: &vendorB}, false},
		{"product delete vendor manager", vendorManager(vendorA), Request{Resource: ResourceProduct, Action: ActionDelete, TargetVendorID: &vendorA}, false},
		{"product read courier", courier(30), Request{Resource: ResourceProduct, Action: ActionRead}, true},

		// DELIVERY_MANAGER.
		{"courier roster manage own hub", hubManager(hubA), Request{Resource: ResourceDeliveryManager, Action: ActionCreate, TargetHubID: &hubA}, true},
		{"courier roster manage other hub", hubManager(hubA), Request{Resource: ResourceDeliveryManager, Action: ActionCreate, TargetHubID: &hubB}, false},
		{"courier roster vendor manager", vendorManager(vendorA), Request{Resource: ResourceDeliveryManager, Action: ActionRead}, false},
		{"courier reads self", courier(30), Request{Resource: ResourceDeliveryManager, Action: ActionRead, TargetUserID: userRef(30)}, true},
		{"courier reads other", courier(30), Request{Resource: ResourceDeliveryManager, Action: ActionRead, TargetUserID: userRef(31)}, false},
		{"courier updates self", courier(30), Request{Resource: ResourceDeliveryManager, Action: ActionUpdate, TargetUserID: userRef(30)}, false},

		// ORDER.
		{"order create hub manager", hubManager(hubA), Request{Resource: ResourceOrder, Action: ActionCreate}, true},
		{"order read own hub", hubManager(hubA), Request{Resource: ResourceOrder, Action: ActionRead, TargetHubID: &hubA}, true},
		{"order delete other hub", hubManager(hubA), Request{Resource: ResourceOrder, Action: ActionDelete, TargetHubID: &hubB}, false},
		{"order create vendor manager", vendorManager(vendorA), Request{Resource: ResourceOrder, Action: ActionCreate}, true},
		{"order read own order", vendorManager(vendorA), Request{Resource: ResourceOrder, Action: ActionRead, TargetUserID: userRef(20)}, true},
		{"order read other order", vendorManager(vendorA), Request{Resource: ResourceOrder, Action: ActionRead, TargetUserID: userRef(21)}, false},
		{"order update vendor manager", vendorManager(vendorA), Request{Resource: ResourceOrder, Action: ActionUpdate, TargetUserID: userRef(20)}, false},
		{"order create courier", courier(30), Request{Resource: ResourceOrder, Action: ActionCreate}, true},
		{"order read own courier", courier(30), Request{Resource: ResourceOrder, Action: ActionRead, TargetUserID: userRef(30)}, true},

		// DELIVERY.
		{"delivery read own hub", hubManager(hubA), Request{Resource: ResourceDelivery, Action: ActionRead, TargetHubID: &hubA}, true},
		{"delivery create hub manager", hubManager(hubA), Request{Resource: ResourceDelivery, Action: ActionCreate, TargetHubID: &hubA}, false},
		{"delivery update other hub", hubManager(hubA), Request{Resource: ResourceDelivery, Action: ActionUpdate, TargetHubID: &hubB}, false},
		{"delivery read vendor manager", vendorManager(vendorA), Request{Resource: ResourceDelivery, Action: ActionRead}, true},
		{"delivery update vendor manager", vendorManager(vendorA), Request{Resource: ResourceDelivery, Action: ActionUpdate, TargetVendorID: &vendorA}, false},
		{"delivery read courier", courier(30), Request{Resource: ResourceDelivery, Action: ActionRead}, true},
		{"delivery update own", courier(30), Request{Resource: ResourceDelivery, Action: ActionUpdate, TargetUserID: userRef(30)}, true},
		{"delivery update other", courier(30), Request{Resource: ResourceDelivery, Action: ActionUpdate, TargetUserID: userRef(31)}, false},
		{"delivery delete courier", courier(30), Request{Resource: ResourceDelivery, Action: ActionDelete, TargetUserID: userRef(30)}, false},

		// SLACK: every authenticated role may send messages.
		{"slack create hub manager", hubManager(hubA), Request{Resource: ResourceSlack, Action: ActionCreate}, true},
		{"slack create vendor manager", vendorManager(vendorA), Request{Resource: ResourceSlack, Action: ActionCreate}, true},
		{"slack create courier", courier(30), Request{Resource: ResourceSlack, Action: ActionCreate}, true},
		{"slack read courier", courier(30), Request{Resource: ResourceSlack, Action: ActionRead}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.principal, tc.req)
			if d.Permit != tc.permit {
				t.Fatalf("permit=%v, want %v (reason=%q)", d.Permit, tc.permit, d.Reason)
			}
			if !d.Permit && d.Reason == "" {
				t.Fatalf("deny without a reason")
			}
			if d.Permit && d.Reason != "" {
				t.Fatalf("permit must not carry a reason, got %q", d.Reason)
			}
		})
	}
}

func TestGuardDeniesWhenPrincipalScopeMissing(t *testing.T) {
	// Hub manager without an assigned hub can never pass a hub guard.
	p := Principal{UserID: 10, Role: RoleHubManager}
	d := Decide(p, Request{Resource: ResourceVendor, Action: ActionCreate, TargetHubID: &hubA})
	if d.Permit {
		t.Fatalf("expected deny when principal has no hub id")
	}
}

func TestParseHelpers(t *testing.T) {
	if r, err := ParseRole(" hub_manager "); err != nil || r != RoleHubManager {
		t.Fatalf("ParseRole: %v %v", r, err)
	}
	if _, err := ParseRole("SUPERVISOR"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if a, err := ParseAction("read"); err != nil || a != ActionRead {
		t.Fatalf("ParseAction: %v %v", a, err)
	}
	if _, err := ParseAction("PATCH"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if ct, err := ParseCourierType("hub_to_vendor"); err != nil || ct != CourierHubToVendor {
		t.Fatalf("ParseCourierType: %v %v", ct, err)
	}
}
