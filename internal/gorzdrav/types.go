package gorzdrav

import (
	"strings"
	"time"
)

// District is a city district grouping facilities.
type District struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Facility is a medical facility (LPU) registered with the provider.
type Facility struct {
	ID         int    `json:"id"`
	ShortName  string `json:"lpuShortName"`
	FullName   string `json:"lpuFullName"`
	DistrictID int    `json:"districtId"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	IsActive   bool   `json:"isActive"`
}

// Specialty is a doctor specialty available at a facility.
type Specialty struct {
	ID          string
	FedID       string
	Name        string
	FreeTickets int
	NearestDate *time.Time
}

// Doctor is a doctor taking appointments under a specialty.
type Doctor struct {
	ID          string
	Name        string
	Room        string
	FreeTickets int
	NearestDate *time.Time
}

// Slot is one open appointment slot advertised by the provider. Slots are
// ephemeral: they are consumed by a reservation attempt or discarded.
type Slot struct {
	ID         string
	VisitStart time.Time
	VisitEnd   time.Time
	Address    string
	Number     string
	Room       string
}

// PatientSearchRequest looks up the provider-side patient id by demographics.
type PatientSearchRequest struct {
	LpuID      int
	LastName   string
	FirstName  string
	MiddleName string
	BirthDate  time.Time
}

// CreateAppointmentRequest is the reserve-slot payload. The provider requires
// the patient demographics to be repeated on every reservation.
type CreateAppointmentRequest struct {
	LpuID             int    `json:"lpuId"`
	PatientID         string `json:"patientId"`
	AppointmentID     string `json:"appointmentId"`
	PatientLastName   string `json:"patientLastName"`
	PatientFirstName  string `json:"patientFirstName"`
	PatientMiddleName string `json:"patientMiddleName"`
	PatientBirthdate  string `json:"patientBirthdate"`
	VisitDate         string `json:"visitDate"`
	Room              string `json:"room,omitempty"`
	Address           string `json:"address,omitempty"`
	RecipientEmail    string `json:"recipientEmail,omitempty"`
}

// envelope is the provider's uniform response wrapper.
type envelope[T any] struct {
	Success    bool   `json:"success"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace"`
	Result     T      `json:"result"`
}

// Wire payloads. The provider's timestamp formats vary, so decoding goes
// through apiTime and is mapped onto the plain exported types above.

type specialtyPayload struct {
	ID          string   `json:"id"`
	FedID       string   `json:"ferId"`
	Name        string   `json:"name"`
	FreeTickets int      `json:"countFreeTicket"`
	NearestDate *apiTime `json:"nearestDate"`
}

func (p specialtyPayload) toSpecialty() Specialty {
	return Specialty{
		ID:          p.ID,
		FedID:       p.FedID,
		Name:        p.Name,
		FreeTickets: p.FreeTickets,
		NearestDate: p.NearestDate.timePtr(),
	}
}

type doctorPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Room        string   `json:"ariaNumber"`
	FreeTickets int      `json:"freeTicketCount"`
	NearestDate *apiTime `json:"nearestDate"`
}

func (p doctorPayload) toDoctor() Doctor {
	return Doctor{
		ID:          p.ID,
		Name:        p.Name,
		Room:        p.Room,
		FreeTickets: p.FreeTickets,
		NearestDate: p.NearestDate.timePtr(),
	}
}

type slotPayload struct {
	ID         string  `json:"id"`
	VisitStart apiTime `json:"visitStart"`
	VisitEnd   apiTime `json:"visitEnd"`
	Address    string  `json:"address"`
	Number     string  `json:"number"`
	Room       string  `json:"room"`
}

func (p slotPayload) toSlot() Slot {
	return Slot{
		ID:         p.ID,
		VisitStart: time.Time(p.VisitStart),
		VisitEnd:   time.Time(p.VisitEnd),
		Address:    p.Address,
		Number:     p.Number,
		Room:       p.Room,
	}
}

// apiTime parses the provider's timestamp strings, which arrive either as
// RFC3339 or as a bare local datetime without offset.
type apiTime time.Time

func (t *apiTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = apiTime(parsed)
			return nil
		}
	}
	// Unparseable dates are dropped rather than failing the whole listing.
	return nil
}

func (t *apiTime) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	converted := time.Time(*t)
	if converted.IsZero() {
		return nil
	}
	return &converted
}
