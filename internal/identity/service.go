package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/token"
)

// Service owns account lifecycle and credential verification. Token issuance
// itself lives in the token package; this service produces the identity
// snapshot the tokens are minted from.
type Service struct {
	users    UserStore
	couriers CourierStore
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(users UserStore, couriers CourierStore, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("identity: user store is required")
	}
	if couriers == nil {
		return nil, errors.New("identity: courier store is required")
	}
	s := &Service{users: users, couriers: couriers, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignUpRequest is a self-service registration. Accounts start PENDING and
// cannot log in until approved.
type SignUpRequest struct {
	Username        string
	Password        string
	ConfirmPassword string
	Name            string
	Email           string
	SlackAccountID  string
	Role            authz.Role
	HubID           *uuid.UUID
	VendorID        *uuid.UUID
	CourierType     *authz.CourierType
}

// SignUp registers a pending account. DELIVERY_MANAGER sign-ups create the
// courier record immediately so the account is never in the inconsistent
// courier-without-record state.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || req.Password == "" || email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", ErrInvalidInput)
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	if err := s.requireUnique(ctx, username, email); err != nil {
		return nil, err
	}
	courier, err := validateScope(req.Role, req.HubID, req.VendorID, req.CourierType)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:       username,
		PasswordHash:   hash,
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		Role:           req.Role,
		Status:         StatusPending,
		SlackAccountID: strings.TrimSpace(req.SlackAccountID),
		HubID:          req.HubID,
		VendorID:       req.VendorID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if courier != nil {
		courier.UserID = user.ID
		if err := s.couriers.Create(ctx, courier); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// CreateUserRequest is the admin registration path: the account is approved
// immediately.
type CreateUserRequest struct {
	Username       string
	Password       string
	Name           string
	Email          string
	SlackAccountID string
	Role           authz.Role
	HubID          *uuid.UUID
	VendorID       *uuid.UUID
	CourierType    *authz.CourierType
}

// CreateUser registers an approved account, creating the courier record for
// DELIVERY_MANAGER roles.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, *CourierRecord, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || req.Password == "" || email == "" {
		return nil, nil, fmt.Errorf("%w: username, password and email are required", ErrInvalidInput)
	}
	if err := s.requireUnique(ctx, username, email); err != nil {
		return nil, nil, err
	}
	courier, err := validateScope(req.Role, req.HubID, req.VendorID, req.CourierType)
	if err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}
	user := &User{
		Username:       username,
		PasswordHash:   hash,
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		Role:           req.Role,
		Status:         StatusApproved,
		SlackAccountID: strings.TrimSpace(req.SlackAccountID),
		HubID:          req.HubID,
		VendorID:       req.VendorID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	if courier != nil {
		courier.UserID = user.ID
		if err := s.couriers.Create(ctx, courier); err != nil {
			return nil, nil, err
		}
	}
	return user, courier, nil
}

// Authenticate verifies a username/password pair and returns the account with
// its courier record when applicable. Username and password failures are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, *CourierRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if user.Status != StatusApproved {
		return nil, nil, ErrPendingApproval
	}
	courier, err := s.courierFor(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, courier, nil
}

// GetUser loads an account and, for couriers, its courier record.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, *CourierRecord, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	courier, err := s.courierFor(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, courier, nil
}

// Courier returns the courier record for a DELIVERY_MANAGER account.
// Absence is ErrCourierRecordMissing, an inconsistent state, not a soft miss.
func (s *Service) Courier(ctx context.Context, userID int64) (*CourierRecord, error) {
	rec, err := s.couriers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCourierRecordMissing
		}
		return nil, err
	}
	return rec, nil
}

// StatusUpdate reports the per-account outcome of a bulk approve/reject.
type StatusUpdate struct {
	Completed []int64         `json:"completed"`
	Failed    []StatusFailure `json:"failed"`
}

// StatusFailure names one account that could not be updated.
type StatusFailure struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

// ApproveUsers approves pending accounts in bulk. Already-approved accounts
// count as completed.
func (s *Service) ApproveUsers(ctx context.Context, userIDs []int64) (StatusUpdate, error) {
	return s.updateStatus(ctx, userIDs, StatusApproved)
}

// RejectUsers rejects pending accounts in bulk.
func (s *Service) RejectUsers(ctx context.Context, userIDs []int64) (StatusUpdate, error) {
	return s.updateStatus(ctx, userIDs, StatusRejected)
}

func (s *Service) updateStatus(ctx context.Context, userIDs []int64, target Status) (StatusUpdate, error) {
	distinct := make([]int64, 0, len(userIDs))
	seen := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	users, err := s.users.FindByIDs(ctx, distinct)
	if err != nil {
		return StatusUpdate{}, err
	}
	byID := make(map[int64]*User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	update := StatusUpdate{}
	for _, id := range distinct {
		user, ok := byID[id]
		if !ok {
			update.Failed = append(update.Failed, StatusFailure{UserID: id, Reason: "user not found"})
			continue
		}
		if user.Status == target {
			update.Completed = append(update.Completed, id)
			continue
		}
		if err := s.users.UpdateStatus(ctx, id, target); err != nil {
			update.Failed = append(update.Failed, StatusFailure{UserID: id, Reason: err.Error()})
			continue
		}
		update.Completed = append(update.Completed, id)
	}
	return update, nil
}

// FindID recovers a username from a matching email and name pair.
func (s *Service) FindID(ctx context.Context, email, name string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user.Name != strings.TrimSpace(name) {
		return "", ErrNotFound
	}
	return user.Username, nil
}

// ResetPassword verifies the account's name and email and replaces the
// password with a generated temporary one, returning it to the caller.
func (s *Service) ResetPassword(ctx context.Context, username, name, email string) (string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if user.Name != strings.TrimSpace(name) || user.Email != strings.ToLower(strings.TrimSpace(email)) {
		return "", ErrNotFound
	}
	temp, err := generateTempPassword()
	if err != nil {
		return "", err
	}
	hash, err := HashPassword(temp)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", err
	}
	return temp, nil
}

func (s *Service) requireUnique(ctx context.Context, username, email string) error {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateUsername
	}
	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *Service) courierFor(ctx context.Context, user *User) (*CourierRecord, error) {
	if user.Role != authz.RoleDeliveryManager {
		return nil, nil
	}
	return s.Courier(ctx, user.ID)
}

// validateScope enforces the role-specific scope ids and builds the courier
// record for delivery roles.
func validateScope(role authz.Role, hubID, vendorID *uuid.UUID, courierType *authz.CourierType) (*CourierRecord, error) {
	switch role {
	case authz.RoleMaster:
		return nil, nil
	case authz.RoleHubManager:
		if hubID == nil {
			return nil, fmt.Errorf("%w: hub id is required for hub managers", ErrInvalidInput)
		}
		return nil, nil
	case authz.RoleVendorManager:
		if vendorID == nil {
			return nil, fmt.Errorf("%w: vendor id is required for vendor managers", ErrInvalidInput)
		}
		return nil, nil
	case authz.RoleDeliveryManager:
		if courierType == nil {
			return nil, fmt.Errorf("%w: courier type is required for delivery managers", ErrInvalidInput)
		}
		rec := &CourierRecord{Type: *courierType}
		if *courierType == authz.CourierHubToVendor {
			if hubID == nil {
				return nil, fmt.Errorf("%w: hub id is required for hub-to-vendor couriers", ErrInvalidInput)
			}
			rec.HubID = hubID
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
}

// SubjectFor builds the token subject for a user and optional courier record.
func SubjectFor(user *User, courier *CourierRecord) token.Subject {
	return token.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Perms:    authz.PermsFor(user.Role),
		HubID:    user.HubID,
		VendorID: user.VendorID,
		Courier:  courier.Attributes(),
	}
}
