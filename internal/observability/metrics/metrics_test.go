package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveTick("booking")
	m.ObserveReservation("success")
	m.ObserveReservation("failed")
	m.ObserveProviderError("slots")
	m.ObserveEntitlementExpired()
	m.ObserveRequestCancelled()
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveTick("booking")
	m.ObserveReservation("success")
	m.ObserveProviderError("doctors")
	m.ObserveEntitlementExpired()
	m.ObserveRequestCancelled()
}
