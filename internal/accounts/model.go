package accounts

import (
	"time"

	"github.com/google/uuid"
)

// User is a chat account on whose behalf patients are registered. The
// entitlement flags drive both booking priority and the expiry sweep.
type User struct {
	ID               int64
	Username         string
	Entitled         bool
	EntitlementStart *time.Time
	EntitlementEnd   *time.Time // nil means unlimited, never auto-expired
	NoSameDayBooking bool
	PriorityOverride bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EntitlementLapsed reports whether the user's paid entitlement has an end
// date in the past. Users without an end date never lapse.
func (u User) EntitlementLapsed(now time.Time) bool {
	return u.EntitlementEnd != nil && now.After(*u.EntitlementEnd)
}

// Patient is a person bookings are made for. RegistryID is the provider-side
// patient id obtained once via the search endpoint at registration.
type Patient struct {
	ID         uuid.UUID
	UserID     int64
	LastName   string
	FirstName  string
	MiddleName string
	BirthDate  time.Time
	RegistryID string
	Email      string
	Phone      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName renders "Last First Middle" for notifications.
func (p Patient) FullName() string {
	name := p.LastName + " " + p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	return name
}
