package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"logihub.io/userservice/internal/authz"
	"logihub.io/userservice/internal/identity"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "username", "password_hash", "name", "email",
		"role", "status", "slack_account_id", "hub_id", "vendor_id",
		"created_at", "updated_at",
	})
}

func TestCreateUser(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("insert into p_users").
		WithArgs("hubmgr", "hash", "Kim", "kim@logihub.io", "HUB_MANAGER", "PENDING", "U123", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	u := &identity.User{
		Username:       "hubmgr",
		PasswordHash:   "hash",
		Name:           "Kim",
		Email:          "kim@logihub.io",
		Role:           authz.RoleHubManager,
		Status:         identity.StatusPending,
		SlackAccountID: "U123",
	}
	if err := store.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 5 {
		t.Fatalf("id = %d", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserMapsUniqueViolations(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into p_users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "p_users_email_key"})
	err := store.Create(context.Background(), &identity.User{Username: "a", Email: "a@x.io"})
	if !errors.Is(err, identity.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}

	mock.ExpectQuery("insert into p_users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "p_users_username_key"})
	err = store.Create(context.Background(), &identity.User{Username: "a", Email: "a@x.io"})
	if !errors.Is(err, identity.ErrDuplicateUsername) {
		t.Fatalf("err = %v, want ErrDuplicateUsername", err)
	}
}

func TestFindByUsername(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("select .* from p_users where username").
		WithArgs("hubmgr").
		WillReturnRows(userRows().AddRow(
			int64(5), "hubmgr", "hash", "Kim", "kim@logihub.io",
			"HUB_MANAGER", "APPROVED", "U123", "11111111-1111-1111-1111-111111111111", nil,
			now, now,
		))

	u, err := store.FindByUsername(context.Background(), "hubmgr")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if u.Role != authz.RoleHubManager || u.Status != identity.StatusApproved {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.HubID == nil || u.HubID.String() != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("hub id not scanned: %v", u.HubID)
	}
	if u.VendorID != nil {
		t.Fatalf("vendor id must be nil")
	}
}

func TestFindByUsernameNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select .* from p_users where username").
		WithArgs("ghost").
		WillReturnRows(userRows())

	if _, err := store.FindByUsername(context.Background(), "ghost"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatusRequiresRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update p_users set status").
		WithArgs("APPROVED", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.UpdateStatus(context.Background(), 5, identity.StatusApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	mock.ExpectExec("update p_users set status").
		WithArgs("APPROVED", int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.UpdateStatus(context.Background(), 999, identity.StatusApproved); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCourierFindByUserID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("select user_id, type, hub_id, serial_number, created_at.*from p_delivery_managers").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "type", "hub_id", "serial_number", "created_at"}).
			AddRow(int64(9), "HUB_TO_VENDOR", "22222222-2222-2222-2222-222222222222", 3, now))

	rec, err := store.Couriers().FindByUserID(context.Background(), 9)
	if err != nil {
		t.Fatalf("FindByUserID: %v", err)
	}
	if rec.Type != authz.CourierHubToVendor || rec.SerialNumber != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	mock.ExpectQuery("select user_id, type, hub_id, serial_number, created_at.*from p_delivery_managers").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "type", "hub_id", "serial_number", "created_at"}))
	if _, err := store.Couriers().FindByUserID(context.Background(), 10); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
