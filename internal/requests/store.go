package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for appointment requests.
type Store struct {
	db DB
}

// NewStore creates a new request store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new pending request.
func (s *Store) Create(ctx context.Context, r *Request) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = StatusPending
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO appointment_requests (id, patient_id, facility_id, specialist_id, doctor_ids, window_start, window_end, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.PatientID, r.FacilityID, r.SpecialistID, r.DoctorIDs,
		minutesOrNil(r.WindowStart), minutesOrNil(r.WindowEnd), string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("requests: create: %w", err)
	}
	return nil
}

const pendingSelect = `
	SELECT r.id, r.patient_id, r.facility_id, r.specialist_id, r.doctor_ids,
	       r.window_start, r.window_end, r.status, r.failure_note, r.created_at, r.updated_at,
	       p.last_name, p.first_name, p.middle_name, p.birth_date, p.registry_id, p.email,
	       u.id, u.entitled, u.entitlement_end, u.no_same_day_booking, u.priority_override, u.created_at
	FROM appointment_requests r
	JOIN patients p ON p.id = r.patient_id
	JOIN users u ON u.id = p.user_id
	WHERE r.status = 'pending'`

// ListPending returns every pending request joined with its owner, one read
// per engine tick.
func (s *Store) ListPending(ctx context.Context) ([]PendingRequest, error) {
	rows, err := s.db.Query(ctx, pendingSelect+`
	ORDER BY r.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("requests: list pending: %w", err)
	}
	defer rows.Close()
	return scanPending(rows)
}

// ListPendingForUser returns pending requests owned by any of the user's
// patients. Used by the entitlement sweep.
func (s *Store) ListPendingForUser(ctx context.Context, userID int64) ([]PendingRequest, error) {
	rows, err := s.db.Query(ctx, pendingSelect+` AND u.id = $1
	ORDER BY r.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("requests: list pending for user: %w", err)
	}
	defer rows.Close()
	return scanPending(rows)
}

// MarkFound transitions a request pending → found. This is the commit point
// of a reservation: once it succeeds the engine never touches the request
// again.
func (s *Store) MarkFound(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointment_requests SET status = 'found', updated_at = $1
		WHERE id = $2 AND status = 'pending'`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("requests: mark found: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("requests: mark found: no pending request with id %s", id)
	}
	return nil
}

// Cancel transitions a request pending → cancelled with a reason. Used when a
// request is cancelled externally, e.g. by the entitlement sweep.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID, note string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointment_requests SET status = 'cancelled', failure_note = $1, updated_at = $2
		WHERE id = $3 AND status = 'pending'`, note, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("requests: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("requests: cancel: no pending request with id %s", id)
	}
	return nil
}

func scanPending(rows pgx.Rows) ([]PendingRequest, error) {
	var out []PendingRequest
	for rows.Next() {
		var (
			pr       PendingRequest
			winStart *int
			winEnd   *int
			status   string
			failNote *string
			entEnd   *time.Time
		)
		if err := rows.Scan(
			&pr.ID, &pr.PatientID, &pr.FacilityID, &pr.SpecialistID, &pr.DoctorIDs,
			&winStart, &winEnd, &status, &failNote, &pr.CreatedAt, &pr.UpdatedAt,
			&pr.Patient.LastName, &pr.Patient.FirstName, &pr.Patient.MiddleName,
			&pr.Patient.BirthDate, &pr.Patient.RegistryID, &pr.Patient.Email,
			&pr.Owner.ID, &pr.Owner.Entitled, &entEnd,
			&pr.Owner.NoSameDayBooking, &pr.Owner.PriorityOverride, &pr.Owner.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("requests: scan pending: %w", err)
		}
		pr.Status = Status(status)
		if failNote != nil {
			pr.FailureNote = *failNote
		}
		if winStart != nil {
			tod := TimeOfDay(*winStart)
			pr.WindowStart = &tod
		}
		if winEnd != nil {
			tod := TimeOfDay(*winEnd)
			pr.WindowEnd = &tod
		}
		pr.Owner.EntitlementEnd = entEnd
		pr.Patient.ID = pr.PatientID
		pr.Patient.UserID = pr.Owner.ID
		out = append(out, pr)
	}
	return out, rows.Err()
}

func minutesOrNil(t *TimeOfDay) *int {
	if t == nil {
		return nil
	}
	m := int(*t)
	return &m
}
