package pg

import (
	"context"
	"database/sql"
	"errors"

	"logihub.io/userservice/internal/identity"
)

// CourierStore implements identity.CourierStore on the same pool.
type CourierStore struct {
	db *sql.DB
}

var _ identity.CourierStore = (*CourierStore)(nil)

// Couriers returns the courier record store view.
func (s *Store) Couriers() *CourierStore { return &CourierStore{db: s.db} }

func (c *CourierStore) Create(ctx context.Context, rec *identity.CourierRecord) error {
	row := c.db.QueryRowContext(ctx, `
		insert into p_delivery_managers (user_id, type, hub_id)
		values ($1, $2, $3)
		returning serial_number, created_at
	`, rec.UserID, rec.Type, rec.HubID)
	return row.Scan(&rec.SerialNumber, &rec.CreatedAt)
}

func (c *CourierStore) FindByUserID(ctx context.Context, userID int64) (*identity.CourierRecord, error) {
	var rec identity.CourierRecord
	err := c.db.QueryRowContext(ctx, `
		select user_id, type, hub_id, serial_number, created_at
		from p_delivery_managers where user_id = $1
	`, userID).Scan(&rec.UserID, &rec.Type, &rec.HubID, &rec.SerialNumber, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
