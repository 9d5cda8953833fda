package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dstepanov-dev/medslot/internal/accounts"
	"github.com/dstepanov-dev/medslot/internal/notify"
	"github.com/dstepanov-dev/medslot/internal/observability/metrics"
	"github.com/dstepanov-dev/medslot/internal/requests"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

// cancelNote is written to requests cancelled on entitlement lapse.
const cancelNote = "subscription expired"

// UserStore provides the account operations the sweep needs.
type UserStore interface {
	ListEntitled(ctx context.Context) ([]accounts.User, error)
	SetEntitled(ctx context.Context, userID int64, entitled bool) error
}

// RequestStore provides the request operations the sweep needs.
type RequestStore interface {
	ListPendingForUser(ctx context.Context, userID int64) ([]requests.PendingRequest, error)
	Cancel(ctx context.Context, id uuid.UUID, note string) error
}

// Notifier delivers a message to a user's chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Sweeper expires lapsed paid entitlements and cancels the outstanding
// requests of affected users, so non-paying accounts stop consuming the
// booking engine. Users with no entitlement end date are never touched.
type Sweeper struct {
	users    UserStore
	reqs     RequestStore
	notifier Notifier
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates an entitlement sweeper.
func NewSweeper(users UserStore, reqs RequestStore, notifier Notifier, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		users:    users,
		reqs:     reqs,
		notifier: notifier,
		logger:   logger,
		interval: time.Hour,
		now:      time.Now,
	}
}

// WithInterval overrides the sweep interval.
func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

// WithMetrics attaches prometheus counters.
func (s *Sweeper) WithMetrics(m *metrics.BookingMetrics) *Sweeper {
	s.metrics = m
	return s
}

// WithClock overrides the time source for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Start launches the sweep loop. It is a no-op if already running.
func (s *Sweeper) Start(ctx context.Context) {
	if s.done != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.Run(runCtx)
	}()
	s.logger.Info("entitlement sweep started", "interval", s.interval)
}

// Stop signals the loop to finish and returns once it has fully exited.
func (s *Sweeper) Stop() {
	if s.done == nil {
		return
	}
	s.cancel()
	<-s.done
	s.done = nil
	s.logger.Info("entitlement sweep stopped")
}

// Run executes the loop on the calling goroutine until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass over all entitled users.
func (s *Sweeper) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("entitlement sweep: tick panicked", "panic", r)
		}
	}()

	s.metrics.ObserveTick("sweep")

	users, err := s.users.ListEntitled(ctx)
	if err != nil {
		s.logger.Error("entitlement sweep: list entitled failed", "error", err)
		return
	}

	now := s.now()
	for i := range users {
		if ctx.Err() != nil {
			return
		}
		if !users[i].EntitlementLapsed(now) {
			continue
		}
		if err := s.expireUser(ctx, &users[i]); err != nil {
			s.logger.Error("entitlement sweep: expiry failed",
				"user_id", users[i].ID, "error", err)
		}
	}
}

func (s *Sweeper) expireUser(ctx context.Context, u *accounts.User) error {
	if err := s.users.SetEntitled(ctx, u.ID, false); err != nil {
		return fmt.Errorf("set entitled: %w", err)
	}
	s.metrics.ObserveEntitlementExpired()

	pending, err := s.reqs.ListPendingForUser(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}

	cancelled := 0
	for _, pr := range pending {
		if err := s.reqs.Cancel(ctx, pr.ID, cancelNote); err != nil {
			s.logger.Error("entitlement sweep: cancel failed",
				"user_id", u.ID, "request_id", pr.ID, "error", err)
			continue
		}
		s.metrics.ObserveRequestCancelled()
		cancelled++
	}

	s.logger.Info("entitlement sweep: entitlement expired",
		"user_id", u.ID, "cancelled_requests", cancelled)

	if err := s.notifier.Send(ctx, u.ID, notify.EntitlementLapsed(cancelled)); err != nil {
		s.logger.Warn("entitlement sweep: lapse notification failed",
			"user_id", u.ID, "error", err)
	}
	return nil
}
