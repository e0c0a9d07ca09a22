package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
	"github.com/srgjo27/evently/internal/core/services"
)

func newMockStore(t *testing.T) (*LedgerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLedgerStore(db), mock
}

var inventoryCols = []string{"event_id", "seats_available", "seats_reserved", "version"}

func TestReserveSeats_Success(t *testing.T) {
	store, mock := newMockStore(t)
	eventID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE event_inventory").
		WithArgs(eventID, 3).
		WillReturnRows(sqlmock.NewRows(inventoryCols).AddRow(eventID.String(), 7, 3, 1))
	mock.ExpectCommit()

	var got *domain.Inventory
	err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error {
		var err error
		got, err = tx.ReserveSeats(context.Background(), eventID, 3)
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, eventID, got.EventID)
	assert.Equal(t, 7, got.SeatsAvailable)
	assert.Equal(t, 3, got.SeatsReserved)
	assert.Equal(t, int64(1), got.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeats_GuardFails(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{name: "sold out", exists: true, want: domain.ErrInsufficientInventory},
		{name: "unknown event", exists: false, want: domain.ErrEventNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			eventID := uuid.New()

			mock.ExpectBegin()
			mock.ExpectQuery("UPDATE event_inventory").
				WithArgs(eventID, 2).
				WillReturnRows(sqlmock.NewRows(inventoryCols))
			mock.ExpectQuery("SELECT EXISTS").
				WithArgs(eventID).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			mock.ExpectRollback()

			err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error {
				_, err := tx.ReserveSeats(context.Background(), eventID, 2)
				return err
			})

			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsertBooking_UniqueViolationOnKey(t *testing.T) {
	store, mock := newMockStore(t)
	b := domain.NewConfirmedBooking(uuid.New(), uuid.New(), 1, "abc", time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23505", Constraint: idempotencyKeyConstraint})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error {
		return tx.InsertBooking(context.Background(), b)
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_NotConfirmed(t *testing.T) {
	store, mock := newMockStore(t)
	bookingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings").
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "event_id", "quantity", "status", "idempotency_key", "created_at", "updated_at"}))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error {
		_, err := tx.CancelBooking(context.Background(), bookingID)
		return err
	})

	assert.ErrorIs(t, err, domain.ErrCannotCancel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendBookingEvent_AssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	b := domain.NewConfirmedBooking(uuid.New(), uuid.New(), 2, "", time.Now())
	ev, err := domain.NewBookEvent(b, time.Now())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO booking_events").
		WithArgs(b.ID, "BOOK", string(ev.Payload), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	err = store.WithinTx(context.Background(), func(tx ports.LedgerTx) error {
		return tx.AppendBookingEvent(context.Background(), ev)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), ev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitSerializationFailureIsTransient(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error { return nil })

	assert.True(t, domain.IsTransient(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitConnectionLossIsNotRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "connection failure", err: &pq.Error{Code: "08006"}},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}},
		{name: "bad conn", err: driver.ErrBadConn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectBegin()
			mock.ExpectCommit().WillReturnError(tt.err)

			err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error { return nil })

			assert.ErrorIs(t, err, domain.ErrCommitUnknown)
			assert.False(t, domain.IsTransient(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReserve_CommitConnectionLossRunsOnce(t *testing.T) {
	store, mock := newMockStore(t)
	eventID := uuid.New()
	log := zap.NewNop()
	opts := services.Options{MaxTxAttempts: 3, RetryBaseDelay: time.Millisecond}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE event_inventory").
		WithArgs(eventID, 2).
		WillReturnRows(sqlmock.NewRows(inventoryCols).AddRow(eventID.String(), 8, 2, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO booking_events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock_shared(")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO event_booking_stats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "08006"})

	projector := services.NewAnalyticsProjector(store, nil, services.RefreshPerEvent, log, opts)
	svc := services.NewBookingService(store, projector, nil, nil, log, opts)

	_, err := svc.Reserve(context.Background(), services.ReserveRequest{UserID: uuid.New(), EventID: eventID, Quantity: 2})

	assert.ErrorIs(t, err, domain.ErrCommitUnknown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshStats_LockPrecedesUpsert(t *testing.T) {
	eventID := uuid.New()

	tests := []struct {
		name    string
		lock    string
		refresh func(tx ports.LedgerTx) error
	}{
		{
			name: "per event takes the lock shared",
			lock: "SELECT pg_advisory_xact_lock_shared($1)",
			refresh: func(tx ports.LedgerTx) error {
				return tx.RefreshEventStats(context.Background(), eventID)
			},
		},
		{
			name: "full refresh takes the lock exclusive",
			lock: "SELECT pg_advisory_xact_lock($1)",
			refresh: func(tx ports.LedgerTx) error {
				return tx.RefreshAllStats(context.Background())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(tt.lock)).
				WithArgs(statsLockKey).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("INSERT INTO event_booking_stats").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			require.NoError(t, store.WithinTx(context.Background(), tt.refresh))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRefreshAllStats_LockFailureSkipsUpsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock(")).
		WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx ports.LedgerTx) error {
		return tx.RefreshAllStats(context.Background())
	})

	assert.True(t, domain.IsTransient(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEventStats_NullTotals(t *testing.T) {
	store, mock := newMockStore(t)
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("FROM event_booking_stats").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "name", "capacity", "total_booked", "utilization", "refreshed_at"}).
			AddRow(a.String(), "a", 10, int64(4), 0.4, now).
			AddRow(b.String(), "b", 0, nil, nil, now))

	rows, err := store.ListEventStats(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), *rows[0].TotalBooked)
	assert.InDelta(t, 0.4, *rows[0].Utilization, 1e-9)
	assert.Nil(t, rows[1].TotalBooked)
	assert.Nil(t, rows[1].Utilization)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInventory_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	eventID := uuid.New()

	mock.ExpectQuery("FROM event_inventory").
		WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows(inventoryCols))

	_, err := store.GetInventory(context.Background(), eventID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		want      error
	}{
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, transient: true},
		{name: "lock timeout", err: &pq.Error{Code: "55P03"}, transient: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, transient: true},
		{name: "bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), transient: true},
		{name: "other unique violation", err: &pq.Error{Code: "23505", Constraint: "bookings_pkey"}},
		{name: "key unique violation", err: &pq.Error{Code: "23505", Constraint: idempotencyKeyConstraint}, want: domain.ErrDuplicateIdempotencyKey},
		{name: "plain", err: errors.New("syntax")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.transient, domain.IsTransient(got))
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
