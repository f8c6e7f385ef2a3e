package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"logihub.io/userservice/internal/audit"
	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/obs"
)

// courierPayload is the wire form of courier attributes.
type courierPayload struct {
	Type  string     `json:"type"`
	HubID *uuid.UUID `json:"hub_id,omitempty"`
}

// principalPayload is the wire form of a principal for the check endpoint.
type principalPayload struct {
	UserID   int64           `json:"user_id"`
	Role     string          `json:"role"`
	HubID    *uuid.UUID      `json:"hub_id,omitempty"`
	VendorID *uuid.UUID      `json:"vendor_id,omitempty"`
	Courier  *courierPayload `json:"courier,omitempty"`
}

func (p *principalPayload) toPrincipal() (authz.Principal, error) {
	role, err := authz.ParseRole(p.Role)
	if err != nil {
		return authz.Principal{}, err
	}
	out := authz.Principal{
		UserID:   p.UserID,
		Role:     role,
		HubID:    p.HubID,
		VendorID: p.VendorID,
	}
	if p.Courier != nil {
		ct, err := authz.ParseCourierType(p.Courier.Type)
		if err != nil {
			return authz.Principal{}, err
		}
		out.Courier = &authz.DeliveryAttributes{Type: ct, HubID: p.Courier.HubID}
	}
	return out, nil
}

type checkRequest struct {
	// Principal may be omitted; the caller's own principal is then used.
	Principal *principalPayload `json:"principal,omitempty"`
	Request   authz.Request     `json:"request"`
}

// handleAuthzCheck evaluates one authorization request. Sibling services
// forward the end user's bearer token and either ask about that user or
// submit an explicit principal snapshot.
func (a *API) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var principal authz.Principal
	if req.Principal != nil {
		p, err := req.Principal.toPrincipal()
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		principal = p
	} else {
		p, ok := authz.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		principal = p
	}
	if req.Request.Resource == "" || req.Request.Action == "" {
		writeError(w, r, http.StatusBadRequest, "resource and action are required")
		return
	}

	decision := authz.Decide(principal, req.Request)
	obs.ObserveAuthzDecision(string(req.Request.Resource), decision.Permit)
	_ = audit.LogEvent(r.Context(), audit.EventDecision, map[string]any{
		"principal_id": principal.UserID,
		"role":         string(principal.Role),
		"resource":     string(req.Request.Resource),
		"action":       string(req.Request.Action),
		"permit":       decision.Permit,
		"reason":       decision.Reason,
	})
	writeJSON(w, http.StatusOK, decision)
}
