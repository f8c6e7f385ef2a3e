package identity

import "errors"

var (
	ErrNotFound          = errors.New("identity: not found")
	ErrInvalidInput      = errors.New("identity: invalid input")
	ErrDuplicateUsername = errors.New("identity: username already taken")
	ErrDuplicateEmail    = errors.New("identity: email already registered")
	// ErrInvalidCredentials covers both unknown-username and wrong-password so
	// callers cannot learn which field was wrong.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrPendingApproval blocks token issuance for accounts that signed up but
	// were not approved yet.
	ErrPendingApproval = errors.New("identity: account pending approval")
	// ErrCourierRecordMissing is a data-consistency fault: a DELIVERY_MANAGER
	// account must always have a courier record.
	ErrCourierRecordMissing = errors.New("identity: courier record missing")
)
