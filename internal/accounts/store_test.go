package accounts

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStoreListEntitled(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "username", "entitled", "entitlement_start", "entitlement_end",
		"no_same_day_booking", "priority_override", "created_at", "updated_at",
	}).
		AddRow(int64(42), "ivanov", true, (*time.Time)(nil), &end, false, false, created, created).
		AddRow(int64(43), "petrova", true, (*time.Time)(nil), (*time.Time)(nil), true, false, created, created)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(rows)

	users, err := store.ListEntitled(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, int64(42), users[0].ID)
	require.NotNil(t, users[0].EntitlementEnd)
	assert.Equal(t, end, *users[0].EntitlementEnd)
	assert.Nil(t, users[1].EntitlementEnd)
	assert.True(t, users[1].NoSameDayBooking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSetEntitled(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET entitled").
		WithArgs(false, pgxmock.AnyArg(), int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetEntitled(context.Background(), 42, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSetEntitledMissingUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE users SET entitled").
		WithArgs(false, pgxmock.AnyArg(), int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetEntitled(context.Background(), 99, false)
	assert.ErrorContains(t, err, "no user with id 99")
}

func TestUserEntitlementLapsed(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, User{}.EntitlementLapsed(now), "unlimited entitlement never lapses")
	assert.True(t, User{EntitlementEnd: &past}.EntitlementLapsed(now))
	assert.False(t, User{EntitlementEnd: &future}.EntitlementLapsed(now))
	assert.False(t, User{EntitlementEnd: &now}.EntitlementLapsed(now), "lapse requires strictly past end")
}
