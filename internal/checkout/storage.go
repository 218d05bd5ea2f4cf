// Package checkout keeps a local log of completed email submissions for
// back-office export. Writes are best-effort: the conversation never fails
// because this log is unavailable.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Record is one completed checkout contact.
type Record struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Email      string    `db:"email"`
	CustomerID string    `db:"customer_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Storage persists checkout records in Postgres.
type Storage struct {
	db *sqlx.DB
}

// NewStorage wraps an open database handle.
func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

const insertRecord = `
INSERT INTO checkouts (id, user_id, email, customer_id, created_at)
VALUES (:id, :user_id, :email, :customer_id, :created_at)`

// Record stores one submission. Every submission gets its own row; the
// remote customer record is duplicated on re-submission and so is this log.
func (s *Storage) Record(ctx context.Context, userID, email, customerID string) error {
	rec := Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		Email:      email,
		CustomerID: customerID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.db.NamedExecContext(ctx, insertRecord, rec); err != nil {
		return fmt.Errorf("checkout: insert record: %w", err)
	}
	return nil
}

const selectByUser = `
SELECT id, user_id, email, customer_id, created_at
FROM checkouts
WHERE user_id = $1
ORDER BY created_at DESC`

// ListByUser returns the user's submissions, newest first.
func (s *Storage) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	var out []Record
	if err := s.db.SelectContext(ctx, &out, selectByUser, userID); err != nil {
		return nil, fmt.Errorf("checkout: list by user: %w", err)
	}
	return out, nil
}
