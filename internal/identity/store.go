package identity

import "context"

// UserStore describes persistence for account records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateStatus(ctx context.Context, userID int64, status Status) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// CourierStore describes persistence for courier records.
type CourierStore interface {
	Create(ctx context.Context, rec *CourierRecord) error
	FindByUserID(ctx context.Context, userID int64) (*CourierRecord, error)
}
