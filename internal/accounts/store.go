package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for users and patients.
type Store struct {
	db DB
}

// NewStore creates a new accounts store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, username, entitled, entitlement_start, entitlement_end, no_same_day_booking, priority_override, created_at, updated_at`

// ListEntitled returns every user currently flagged as entitled.
func (s *Store) ListEntitled(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE entitled
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("accounts: list entitled: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// SetEntitled flips the entitlement flag for one user.
func (s *Store) SetEntitled(ctx context.Context, userID int64, entitled bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET entitled = $1, updated_at = $2
		WHERE id = $3`, entitled, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("accounts: set entitled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("accounts: set entitled: no user with id %d", userID)
	}
	return nil
}

// GetUser loads one user by chat id.
func (s *Store) GetUser(ctx context.Context, userID int64) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`, userID)
	var u User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Entitled, &u.EntitlementStart, &u.EntitlementEnd,
		&u.NoSameDayBooking, &u.PriorityOverride, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("accounts: get user: %w", err)
	}
	return &u, nil
}

// ListPatients returns a user's registered patients.
func (s *Store) ListPatients(ctx context.Context, userID int64) ([]Patient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, last_name, first_name, middle_name, birth_date, registry_id, email, phone, created_at, updated_at
		FROM patients
		WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("accounts: list patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.LastName, &p.FirstName, &p.MiddleName,
			&p.BirthDate, &p.RegistryID, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("accounts: scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Entitled, &u.EntitlementStart, &u.EntitlementEnd,
			&u.NoSameDayBooking, &u.PriorityOverride, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("accounts: scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
