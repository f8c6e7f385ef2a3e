package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"logihub.io/userservice/internal/identity"
)

var _ identity.UserStore = (*Store)(nil)

const userColumns = `user_id, username, password_hash, name, email, role, status, slack_account_id, hub_id, vendor_id, created_at, updated_at`

func (s *Store) Create(ctx context.Context, u *identity.User) error {
	row := s.db.QueryRowContext(ctx, `
		insert into p_users (username, password_hash, name, email, role, status, slack_account_id, hub_id, vendor_id)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		returning user_id, created_at, updated_at
	`, u.Username, u.PasswordHash, u.Name, u.Email, u.Role, u.Status, u.SlackAccountID, u.HubID, u.VendorID)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return identity.ErrDuplicateEmail
			}
			return identity.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from p_users where user_id = $1`, id)
	return scanUser(row)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from p_users where username = $1`, username)
	return scanUser(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from p_users where email = $1`, email)
	return scanUser(row)
}

func (s *Store) FindByIDs(ctx context.Context, ids []int64) ([]*identity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from p_users where user_id in (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from p_users where username = $1)`, username).Scan(&exists)
	return exists, err
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from p_users where email = $1)`, email).Scan(&exists)
	return exists, err
}

func (s *Store) UpdateStatus(ctx context.Context, userID int64, status identity.Status) error {
	res, err := s.db.ExecContext(ctx, `update p_users set status = $1, updated_at = now() where user_id = $2`, status, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `update p_users set password_hash = $1, updated_at = now() where user_id = $2`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*identity.User, error) {
	var u identity.User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Email,
		&u.Role, &u.Status, &u.SlackAccountID, &u.HubID, &u.VendorID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return identity.ErrNotFound
	}
	return nil
}
