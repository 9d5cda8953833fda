package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking engine and the
// entitlement sweep.
type BookingMetrics struct {
	ticksTotal        *prometheus.CounterVec
	reservationsTotal *prometheus.CounterVec
	providerErrors    *prometheus.CounterVec
	expiredTotal      prometheus.Counter
	cancelledTotal    prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medslot",
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total loop ticks executed",
		}, []string{"loop"}),
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medslot",
			Subsystem: "engine",
			Name:      "reservations_total",
			Help:      "Total reservation attempts by outcome",
		}, []string{"outcome"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medslot",
			Subsystem: "engine",
			Name:      "provider_errors_total",
			Help:      "Total unexpected scheduling API failures by operation",
		}, []string{"operation"}),
		expiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medslot",
			Subsystem: "sweep",
			Name:      "entitlements_expired_total",
			Help:      "Total entitlements expired by the sweep",
		}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medslot",
			Subsystem: "sweep",
			Name:      "requests_cancelled_total",
			Help:      "Total pending requests cancelled on entitlement lapse",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.ticksTotal, m.reservationsTotal, m.providerErrors, m.expiredTotal, m.cancelledTotal)
	return m
}

func (m *BookingMetrics) ObserveTick(loop string) {
	if m == nil {
		return
	}
	m.ticksTotal.WithLabelValues(loop).Inc()
}

func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveProviderError(operation string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(operation).Inc()
}

func (m *BookingMetrics) ObserveEntitlementExpired() {
	if m == nil {
		return
	}
	m.expiredTotal.Inc()
}

func (m *BookingMetrics) ObserveRequestCancelled() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}
