package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dstepanov-dev/medslot/internal/accounts"
	"github.com/dstepanov-dev/medslot/internal/notify"
	"github.com/dstepanov-dev/medslot/internal/requests"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

type fakeUserStore struct {
	users    []accounts.User
	setErr   map[int64]error
	disabled []int64
}

func (f *fakeUserStore) ListEntitled(ctx context.Context) ([]accounts.User, error) {
	out := make([]accounts.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeUserStore) SetEntitled(ctx context.Context, userID int64, entitled bool) error {
	if err := f.setErr[userID]; err != nil {
		return err
	}
	if !entitled {
		f.disabled = append(f.disabled, userID)
	}
	return nil
}

type fakeRequestStore struct {
	pendingByUser map[int64][]requests.PendingRequest
	cancelErr     map[uuid.UUID]error
	cancelled     []uuid.UUID
	notes         []string
}

func (f *fakeRequestStore) ListPendingForUser(ctx context.Context, userID int64) ([]requests.PendingRequest, error) {
	return f.pendingByUser[userID], nil
}

func (f *fakeRequestStore) Cancel(ctx context.Context, id uuid.UUID, note string) error {
	if err := f.cancelErr[id]; err != nil {
		return err
	}
	f.cancelled = append(f.cancelled, id)
	f.notes = append(f.notes, note)
	return nil
}

type fakeNotifier struct {
	err   error
	chats []int64
	texts []string
}

func (f *fakeNotifier) Send(ctx context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.chats = append(f.chats, chatID)
	f.texts = append(f.texts, text)
	return nil
}

func pendingFor(userID int64) requests.PendingRequest {
	return requests.PendingRequest{
		Request: requests.Request{
			ID:     uuid.New(),
			Status: requests.StatusPending,
		},
		Owner: accounts.User{ID: userID},
	}
}

func lapsedUser(id int64, now time.Time) accounts.User {
	end := now.Add(-time.Hour)
	return accounts.User{ID: id, Entitled: true, EntitlementEnd: &end}
}

func newTestSweeper(users *fakeUserStore, reqs *fakeRequestStore, notifier *fakeNotifier, now time.Time) *Sweeper {
	return NewSweeper(users, reqs, notifier, logging.Default()).
		WithClock(func() time.Time { return now })
}

func TestSweepExpiresLapsedUser(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	user := lapsedUser(100, now)
	first, second := pendingFor(100), pendingFor(100)

	users := &fakeUserStore{users: []accounts.User{user}}
	reqs := &fakeRequestStore{
		pendingByUser: map[int64][]requests.PendingRequest{
			100: {first, second},
		},
	}
	notifier := &fakeNotifier{}

	newTestSweeper(users, reqs, notifier, now).Tick(context.Background())

	if len(users.disabled) != 1 || users.disabled[0] != 100 {
		t.Fatalf("disabled = %v, want [100]", users.disabled)
	}
	if len(reqs.cancelled) != 2 {
		t.Fatalf("cancelled = %v, want both requests", reqs.cancelled)
	}
	for _, note := range reqs.notes {
		if note != cancelNote {
			t.Fatalf("cancel note = %q, want %q", note, cancelNote)
		}
	}
	if len(notifier.chats) != 1 || notifier.chats[0] != 100 {
		t.Fatalf("notified chats = %v, want one message to 100", notifier.chats)
	}
	if notifier.texts[0] != notify.EntitlementLapsed(2) {
		t.Fatalf("notification = %q", notifier.texts[0])
	}
}

func TestSweepLeavesActiveAndUnlimitedUsersAlone(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)

	users := &fakeUserStore{users: []accounts.User{
		{ID: 1, Entitled: true},                          // unlimited, no end date
		{ID: 2, Entitled: true, EntitlementEnd: &future}, // still active
	}}
	reqs := &fakeRequestStore{}
	notifier := &fakeNotifier{}

	newTestSweeper(users, reqs, notifier, now).Tick(context.Background())

	if len(users.disabled) != 0 {
		t.Fatalf("disabled = %v, want none", users.disabled)
	}
	if len(reqs.cancelled) != 0 || len(notifier.chats) != 0 {
		t.Fatal("expected no cancellations or notifications")
	}
}

func TestSweepEndDateBoundary(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	exact := now

	users := &fakeUserStore{users: []accounts.User{
		{ID: 1, Entitled: true, EntitlementEnd: &exact},
	}}
	reqs := &fakeRequestStore{}
	notifier := &fakeNotifier{}

	// An end date of exactly now has not lapsed yet.
	newTestSweeper(users, reqs, notifier, now).Tick(context.Background())

	if len(users.disabled) != 0 {
		t.Fatalf("disabled = %v, want none at the exact end instant", users.disabled)
	}
}

func TestSweepIsolatesFailingUser(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	broken := lapsedUser(100, now)
	healthy := lapsedUser(200, now)

	users := &fakeUserStore{
		users:  []accounts.User{broken, healthy},
		setErr: map[int64]error{100: errors.New("accounts: update failed")},
	}
	reqs := &fakeRequestStore{
		pendingByUser: map[int64][]requests.PendingRequest{
			200: {pendingFor(200)},
		},
	}
	notifier := &fakeNotifier{}

	newTestSweeper(users, reqs, notifier, now).Tick(context.Background())

	if len(users.disabled) != 1 || users.disabled[0] != 200 {
		t.Fatalf("disabled = %v, want healthy user only", users.disabled)
	}
	if len(reqs.cancelled) != 1 {
		t.Fatalf("cancelled = %v, want the healthy user's request", reqs.cancelled)
	}
}

func TestSweepCancelFailureStillCountsTheRest(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	user := lapsedUser(100, now)
	stuck, ok := pendingFor(100), pendingFor(100)

	users := &fakeUserStore{users: []accounts.User{user}}
	reqs := &fakeRequestStore{
		pendingByUser: map[int64][]requests.PendingRequest{
			100: {stuck, ok},
		},
		cancelErr: map[uuid.UUID]error{stuck.ID: errors.New("requests: update failed")},
	}
	notifier := &fakeNotifier{}

	newTestSweeper(users, reqs, notifier, now).Tick(context.Background())

	if len(reqs.cancelled) != 1 || reqs.cancelled[0] != ok.ID {
		t.Fatalf("cancelled = %v, want only %s", reqs.cancelled, ok.ID)
	}
	if notifier.texts[0] != notify.EntitlementLapsed(1) {
		t.Fatalf("notification = %q, want count of 1", notifier.texts[0])
	}
}

func TestSweeperStartStop(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	users := &fakeUserStore{}
	reqs := &fakeRequestStore{}
	notifier := &fakeNotifier{}

	sweeper := newTestSweeper(users, reqs, notifier, now).WithInterval(5 * time.Millisecond)
	sweeper.Start(context.Background())
	sweeper.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()
}
