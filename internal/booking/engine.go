package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dstepanov-dev/medslot/internal/gorzdrav"
	"github.com/dstepanov-dev/medslot/internal/notify"
	"github.com/dstepanov-dev/medslot/internal/observability/metrics"
	"github.com/dstepanov-dev/medslot/internal/requests"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

// RequestStore provides the persistence operations the engine needs.
type RequestStore interface {
	ListPending(ctx context.Context) ([]requests.PendingRequest, error)
	MarkFound(ctx context.Context, id uuid.UUID) error
}

// SchedulingClient is the subset of the external scheduling API the engine
// calls.
type SchedulingClient interface {
	ListDoctors(ctx context.Context, lpuID int, specialistID string) ([]gorzdrav.Doctor, error)
	ListSlots(ctx context.Context, lpuID int, doctorID string) ([]gorzdrav.Slot, error)
	ReserveSlot(ctx context.Context, req gorzdrav.CreateAppointmentRequest) error
}

// Notifier delivers a message to a user's chat. Failures are swallowed by
// the engine.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Engine polls the scheduling API for slots matching pending requests and
// reserves the first match per request. One tick walks all pending requests
// in priority order, strictly sequentially; two ticks never overlap.
type Engine struct {
	store    RequestStore
	api      SchedulingClient
	notifier Notifier
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a booking engine.
func NewEngine(store RequestStore, api SchedulingClient, notifier Notifier, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:    store,
		api:      api,
		notifier: notifier,
		logger:   logger,
		interval: 10 * time.Second,
		now:      time.Now,
	}
}

// WithInterval overrides the tick interval.
func (e *Engine) WithInterval(d time.Duration) *Engine {
	if d > 0 {
		e.interval = d
	}
	return e
}

// WithMetrics attaches prometheus counters.
func (e *Engine) WithMetrics(m *metrics.BookingMetrics) *Engine {
	e.metrics = m
	return e
}

// WithClock overrides the time source. Used by tests for the same-day
// filter.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// Start launches the engine loop. It is a no-op if the engine is already
// running.
func (e *Engine) Start(ctx context.Context) {
	if e.done != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(runCtx)
	e.logger.Info("booking engine started", "interval", e.interval)
}

// Stop signals the loop to finish and returns once it has fully exited. No
// background work survives Stop.
func (e *Engine) Stop() {
	if e.done == nil {
		return
	}
	e.cancel()
	<-e.done
	e.done = nil
	e.logger.Info("booking engine stopped")
}

// Run executes the loop on the calling goroutine until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	e.Run(ctx)
}

// Tick runs one full pass over all pending requests. Nothing escaping a tick
// may kill the loop, so the body recovers panics at the top.
func (e *Engine) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("booking engine: tick panicked", "panic", r)
		}
	}()

	e.metrics.ObserveTick("booking")

	pending, err := e.store.ListPending(ctx)
	if err != nil {
		e.logger.Error("booking engine: list pending failed", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	SortByPriority(pending)
	e.logger.Info("booking engine: processing pending requests", "count", len(pending))

	for i := range pending {
		if ctx.Err() != nil {
			return
		}
		e.processOne(ctx, &pending[i])
	}
}

// processOne isolates a single request: a panic or error here never stalls
// the requests behind it.
func (e *Engine) processOne(ctx context.Context, pr *requests.PendingRequest) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("booking engine: request processing panicked",
				"request_id", pr.ID, "panic", r)
		}
	}()
	if err := e.processRequest(ctx, pr); err != nil {
		e.logger.Error("booking engine: request processing failed",
			"request_id", pr.ID, "error", err)
	}
}

func (e *Engine) processRequest(ctx context.Context, pr *requests.PendingRequest) error {
	// Doctor listings are never cached: staffing changes between ticks.
	doctors, err := e.api.ListDoctors(ctx, pr.FacilityID, pr.SpecialistID)
	if err != nil {
		e.metrics.ObserveProviderError("doctors")
		return fmt.Errorf("list doctors: %w", err)
	}

	doctorNames := make(map[string]string, len(doctors))
	for _, d := range doctors {
		doctorNames[d.ID] = d.Name
	}

	doctorIDs := pr.DoctorIDs
	if len(doctorIDs) == 0 {
		doctorIDs = make([]string, 0, len(doctors))
		for _, d := range doctors {
			doctorIDs = append(doctorIDs, d.ID)
		}
	}

	window := pr.Window()
	for _, doctorID := range doctorIDs {
		doctorName := doctorNames[doctorID]
		if doctorName == "" {
			doctorName = "ID:" + doctorID
		}

		slots, err := e.api.ListSlots(ctx, pr.FacilityID, doctorID)
		if err != nil {
			if gorzdrav.IsNoSlots(err) {
				e.logger.Debug("booking engine: no slots for doctor",
					"request_id", pr.ID, "doctor", doctorName)
			} else {
				e.metrics.ObserveProviderError("slots")
				e.logger.Warn("booking engine: slot listing failed",
					"request_id", pr.ID, "doctor", doctorName, "error", err)
			}
			continue
		}

		for _, slot := range slots {
			if !window.Contains(slot.VisitStart) {
				continue
			}
			if pr.Owner.NoSameDayBooking && sameDay(slot.VisitStart, e.now()) {
				e.logger.Debug("booking engine: skipping same-day slot",
					"request_id", pr.ID, "doctor", doctorName, "start", slot.VisitStart)
				continue
			}

			reserved, err := e.reserve(ctx, pr, doctorName, slot)
			if err != nil {
				e.metrics.ObserveReservation("failed")
				e.logger.Error("booking engine: reservation attempt failed",
					"request_id", pr.ID, "doctor", doctorName, "slot_id", slot.ID, "error", err)
			}
			if reserved {
				return nil
			}
			// The slot may have been taken moments earlier; try the next
			// candidate this tick, and there is always a next tick.
		}
	}
	return nil
}

// reserve runs the reservation pipeline for one concrete slot: external
// booking, then the local Found commit, then best-effort notification. The
// returned bool reports whether the external reservation went through; once
// it has, the engine must not try further slots for this request even if a
// later step failed.
func (e *Engine) reserve(ctx context.Context, pr *requests.PendingRequest, doctorName string, slot gorzdrav.Slot) (bool, error) {
	err := e.api.ReserveSlot(ctx, gorzdrav.CreateAppointmentRequest{
		LpuID:             pr.FacilityID,
		PatientID:         pr.Patient.RegistryID,
		AppointmentID:     slot.ID,
		PatientLastName:   pr.Patient.LastName,
		PatientFirstName:  pr.Patient.FirstName,
		PatientMiddleName: pr.Patient.MiddleName,
		PatientBirthdate:  pr.Patient.BirthDate.Format("2006-01-02"),
		VisitDate:         slot.VisitStart.Format(time.RFC3339),
		Room:              slot.Room,
		Address:           slot.Address,
		RecipientEmail:    pr.Patient.Email,
	})
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}

	e.metrics.ObserveReservation("success")
	e.logger.Info("booking engine: slot reserved",
		"request_id", pr.ID, "doctor", doctorName, "start", slot.VisitStart)

	// Commit point. After this the request is terminal and never revisited,
	// regardless of whether the notification below goes out.
	if err := e.store.MarkFound(ctx, pr.ID); err != nil {
		return true, fmt.Errorf("mark found: %w", err)
	}

	if err := e.notifier.Send(ctx, pr.Owner.ID, notify.BookingConfirmation(notify.BookingDetails{
		PatientName: pr.Patient.FullName(),
		DoctorName:  doctorName,
		VisitStart:  slot.VisitStart,
		VisitEnd:    slot.VisitEnd,
		Room:        slot.Room,
		Address:     slot.Address,
	})); err != nil {
		e.logger.Warn("booking engine: confirmation notification failed",
			"request_id", pr.ID, "user_id", pr.Owner.ID, "error", err)
	}

	return true, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
