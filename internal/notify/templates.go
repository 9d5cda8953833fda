package notify

import (
	"fmt"
	"strings"
	"time"
)

// BookingDetails carries everything a confirmation message needs.
type BookingDetails struct {
	PatientName string
	DoctorName  string
	VisitStart  time.Time
	VisitEnd    time.Time
	Room        string
	Address     string
}

// BookingConfirmation renders the message sent after a successful
// reservation.
func BookingConfirmation(d BookingDetails) string {
	room := d.Room
	if room == "" {
		room = "not specified"
	}
	address := d.Address
	if address == "" {
		address = "not specified"
	}

	var b strings.Builder
	b.WriteString("<b>Appointment booked!</b>\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", d.PatientName)
	fmt.Fprintf(&b, "Doctor: %s\n", d.DoctorName)
	fmt.Fprintf(&b, "Date: %s\n", d.VisitStart.Format("02.01.2006 15:04"))
	if !d.VisitEnd.IsZero() {
		fmt.Fprintf(&b, "Ends: %s\n", d.VisitEnd.Format("15:04"))
	}
	fmt.Fprintf(&b, "Room: %s\n", room)
	fmt.Fprintf(&b, "Address: %s\n\n", address)
	b.WriteString("Your request has been marked as completed. Please arrive 15 minutes early.")
	return b.String()
}

// EntitlementLapsed renders the message sent when the sweep expires a paid
// entitlement and cancels the user's outstanding requests.
func EntitlementLapsed(cancelled int) string {
	var b strings.Builder
	b.WriteString("<b>Your subscription has expired</b>\n\n")
	switch cancelled {
	case 0:
		b.WriteString("You had no outstanding appointment requests.\n")
	case 1:
		b.WriteString("Your outstanding appointment request has been cancelled.\n")
	default:
		fmt.Fprintf(&b, "Your %d outstanding appointment requests have been cancelled.\n", cancelled)
	}
	b.WriteString("\nUse /subscribe to renew and restore priority booking.")
	return b.String()
}
