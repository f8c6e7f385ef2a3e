package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"logihub.io/userservice/internal/audit"
	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/identity"
	"logihub.io/userservice/internal/obs"
	"logihub.io/userservice/internal/token"
)

type signUpRequest struct {
	Username        string     `json:"username"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	SlackAccountID  string     `json:"slack_account_id,omitempty"`
	Role            string     `json:"role"`
	HubID           *uuid.UUID `json:"hub_id,omitempty"`
	VendorID        *uuid.UUID `json:"vendor_id,omitempty"`
	CourierType     string     `json:"courier_type,omitempty"`
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signUpRequest
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

	user, err := a.identity.SignUp(r.Context(), identity.SignUpRequest{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
		Email:           req.Email,
		SlackAccountID:  req.SlackAccountID,
		Role:            role,
		HubID:           req.HubID,
		VendorID:        req.VendorID,
		CourierType:     courierType,
	})
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventSignUp, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"status":  string(user.Status),
	})
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenGrantResponse struct {
	UserID           int64     `json:"user_id"`
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, courier, err := a.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, identity.ErrPendingApproval):
			writeError(w, r, http.StatusForbidden, "account pending approval")
		default:
			writeError(w, r, http.StatusInternalServerError, "sign-in failed")
		}
		return
	}

	a.grantTokens(w, r, user, courier, audit.EventSignIn)
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	claims, ok := token.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.tokens.Revoke(r.Context(), claims); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "sign-out failed")
		return
	}
	obs.CountTokenRevoked()
	_ = audit.LogEvent(r.Context(), audit.EventSignOut, map[string]any{
		"username": claims.PreferredUsername,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	raw := r.Header.Get(refreshHeader)
	if raw == "" {
		writeError(w, r, http.StatusUnauthorized, "missing refresh token")
		return
	}

	claims, err := a.tokens.VerifyRefresh(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpiredToken),
			errors.Is(err, token.ErrInvalidToken),
			errors.Is(err, token.ErrWrongTokenType):
			rejectToken(w, r, err.Error())
		default:
			writeError(w, r, http.StatusServiceUnavailable, "credential store unavailable")
		}
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		rejectToken(w, r, err.Error())
		return
	}
	user, courier, err := a.identity.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			rejectToken(w, r, "refresh subject no longer exists")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "refresh failed")
		return
	}
	if user.Status != identity.StatusApproved {
		writeError(w, r, http.StatusForbidden, "account not active")
		return
	}

	a.grantTokens(w, r, user, courier, audit.EventRefresh)
}

// grantTokens issues a fresh pair, sets the credential headers and writes the
// grant response. Issuing on refresh rotates the live refresh slot.
func (a *API) grantTokens(w http.ResponseWriter, r *http.Request, user *identity.User, courier *identity.CourierRecord, event string) {
	pair, err := a.tokens.Issue(r.Context(), identity.SubjectFor(user, courier))
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "token issuance failed")
		return
	}
	obs.CountTokenIssued(string(token.TypeAccess))
	obs.CountTokenIssued(string(token.TypeRefresh))
	_ = audit.LogEvent(r.Context(), event, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	})

	w.Header().Set(authHeader, bearer+pair.Access)
	w.Header().Set(refreshHeader, pair.Refresh)
	writeJSON(w, http.StatusOK, tokenGrantResponse{
		UserID:           user.ID,
		Username:         user.Username,
		Role:             string(user.Role),
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}

type findIDRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a *API) handleFindID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req findIDRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	username, err := a.identity.FindID(r.Context(), req.Email, req.Name)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": username})
}

type findPasswordRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (a *API) handleFindPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req findPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	temp, err := a.identity.ResetPassword(r.Context(), req.Username, req.Name, req.Email)
	if err != nil {
		handleIdentityError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventPasswordReset, map[string]any{
		"username": req.Username,
	})
	writeJSON(w, http.StatusOK, map[string]any{"temp_password": temp})
}

func handleIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrDuplicateUsername), errors.Is(err, identity.ErrDuplicateEmail):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
