package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"logihub.io/userservice/internal/audit"
	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/identity"
)

type userResponse struct {
	UserID         int64           `json:"user_id"`
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           string          `json:"role"`
	Status         string          `json:"status"`
	SlackAccountID string          `json:"slack_account_id,omitempty"`
	HubID          *uuid.UUID      `json:"hub_id,omitempty"`
	VendorID       *uuid.UUID      `json:"vendor_id,omitempty"`
	Courier        *courierPayload `json:"courier,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toUserResponse(user *identity.User, courier *identity.CourierRecord) userResponse {
	resp := userResponse{
		UserID:         user.ID,
		Username:       user.Username,
		Name:           user.Name,
		Email:          user.Email,
		Role:           string(user.Role),
		Status:         string(user.Status),
		SlackAccountID: user.SlackAccountID,
		HubID:          user.HubID,
		VendorID:       user.VendorID,
		CreatedAt:      user.CreatedAt,
	}
	if courier != nil {
		resp.Courier = &courierPayload{Type: string(courier.Type), HubID: courier.HubID}
	}
	return resp
}

type createUserRequest struct {
	Username       string     `json:"username"`
	Password       string     `json:"password"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	SlackAccountID string     `json:"slack_account_id,omitempty"`
	Role           string     `json:"role"`
	HubID          *uuid.UUID `json:"hub_id,omitempty"`
	VendorID       *uuid.UUID `json:"vendor_id,omitempty"`
	CourierType    string     `json:"courier_type,omitempty"`
}

// handleCreateUser is the administrative registration path: the account is
// approved immediately.
func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := requireMaster(w, r); !ok {
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var courierType *authz.CourierType
	if req.CourierType != "" {
		ct, err := authz.ParseCourierType(req.CourierType)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		courierType = &ct
	}

	user, courier, err := a.identity.CreateUser(r.Context(), identity.CreateUserRequest{
		Username:       req.Username,
		Password:       req.Password,
		Name:           req.Name,
		Email:          req.Email,
		SlackAccountID: req.SlackAccountID,
		Role:           role,
		HubID:          req.HubID,
		VendorID:       req.VendorID,
		CourierType:    courierType,
	})
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventUserCreate, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	})
	writeJSON(w, http.StatusCreated, toUserResponse(user, courier))
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	user, courier, err := a.identity.GetUser(r.Context(), p.UserID)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user, courier))
}

// handleUserByID serves GET /v1/users/{id}. Accounts are visible to MASTER
// and to their owner.
func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	idPart := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if idPart == "" || strings.Contains(idPart, "/") {
		http.NotFound(w, r)
		return
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if p.Role != authz.RoleMaster && p.UserID != userID {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	user, courier, err := a.identity.GetUser(r.Context(), userID)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user, courier))
}

type statusChangeRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

func (a *API) handleApprove(w http.ResponseWriter, r *http.Request) {
	a.handleStatusChange(w, r, audit.EventUserApprove, a.identity.ApproveUsers)
}

func (a *API) handleReject(w http.ResponseWriter, r *http.Request) {
	a.handleStatusChange(w, r, audit.EventUserReject, a.identity.RejectUsers)
}

func (a *API) handleStatusChange(
	w http.ResponseWriter,
	r *http.Request,
	event string,
	apply func(ctx context.Context, userIDs []int64) (identity.StatusUpdate, error),
) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := requireMaster(w, r); !ok {
		return
	}
	var req statusChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "user_ids are required")
		return
	}

	update, err := apply(r.Context(), req.UserIDs)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), event, map[string]any{
		"completed": update.Completed,
		"failed":    len(update.Failed),
	})
	writeJSON(w, http.StatusOK, update)
}
