package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/dstepanov-dev/medslot/internal/accounts"
)

// Status is the request lifecycle state. Found and Cancelled are terminal:
// the engine never revisits a request once it leaves Pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFound     Status = "found"
	StatusCancelled Status = "cancelled"
)

// Request is a standing instruction to find and book one appointment slot.
type Request struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	FacilityID   int
	SpecialistID string
	// DoctorIDs restricts matching to these doctors; empty means any doctor
	// under the specialist at the facility.
	DoctorIDs   []string
	WindowStart *TimeOfDay
	WindowEnd   *TimeOfDay
	Status      Status
	FailureNote string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Window returns the request's preferred time-of-day window.
func (r *Request) Window() Window {
	return Window{Start: r.WindowStart, End: r.WindowEnd}
}

// PendingRequest is a pending request joined with its owner data, as the
// booking engine consumes it. Loading owners with the request keeps the tick
// to a single read.
type PendingRequest struct {
	Request
	Patient accounts.Patient
	Owner   accounts.User
}
