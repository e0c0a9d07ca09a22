package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/srgjo27/evently/internal/core/domain"
)

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) FindBookingByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	FROM bookings
	WHERE idempotency_key = $1
	`

	b, err := scanBooking(t.tx.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}

		return nil, fmt.Errorf("failed to look up idempotency key: %w", classify(err))
	}

	return b, nil
}

func (t *ledgerTx) ReadInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	query := `
	SELECT event_id, seats_available, seats_reserved, version
	FROM event_inventory
	WHERE event_id = $1
	`

	var inv domain.Inventory
	err := t.tx.QueryRowContext(ctx, query, eventID).Scan(&inv.EventID, &inv.SeatsAvailable, &inv.SeatsReserved, &inv.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}

		return nil, classify(err)
	}

	return &inv, nil
}

// ReserveSeats is the conditional decrement: the guard and the write happen
// in one statement, so two transactions can never both pass the guard on the
// same remaining seats.
func (t *ledgerTx) ReserveSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error) {
	query := `
	UPDATE event_inventory
	SET seats_available = seats_available - $2,
		seats_reserved = seats_reserved + $2,
		version = version + 1,
		updated_at = NOW()
	WHERE event_id = $1 AND seats_available >= $2
	RETURNING event_id, seats_available, seats_reserved, version
	`

	var inv domain.Inventory
	err := t.tx.QueryRowContext(ctx, query, eventID, quantity).Scan(&inv.EventID, &inv.SeatsAvailable, &inv.SeatsReserved, &inv.Version)
	if err == nil {
		return &inv, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve seats: %w", classify(err))
	}

	var exists bool
	err = t.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM event_inventory WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return nil, classify(err)
	}

	if !exists {
		return nil, domain.ErrEventNotFound
	}

	return nil, domain.ErrInsufficientInventory
}

func (t *ledgerTx) ReleaseSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error) {
	query := `
	UPDATE event_inventory
	SET seats_available = seats_available + $2,
		seats_reserved = seats_reserved - $2,
		version = version + 1,
		updated_at = NOW()
	WHERE event_id = $1 AND seats_reserved >= $2
	RETURNING event_id, seats_available, seats_reserved, version
	`

	var inv domain.Inventory
	err := t.tx.QueryRowContext(ctx, query, eventID, quantity).Scan(&inv.EventID, &inv.SeatsAvailable, &inv.SeatsReserved, &inv.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("release %d seats for event %s: inventory row missing or under-reserved", quantity, eventID)
		}

		return nil, fmt.Errorf("failed to release seats: %w", classify(err))
	}

	return &inv, nil
}

func (t *ledgerTx) InsertBooking(ctx context.Context, booking *domain.Booking) error {
	query := `
	INSERT INTO bookings (id, user_id, event_id, quantity, status, idempotency_key, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := t.tx.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.EventID,
		booking.Quantity,
		booking.Status,
		booking.IdempotencyKey,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		err = classify(err)
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			return err
		}

		return fmt.Errorf("failed to insert booking: %w", err)
	}

	return nil
}

func (t *ledgerTx) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	query := `
	UPDATE bookings
	SET status = 'CANCELLED', updated_at = NOW()
	WHERE id = $1 AND status = 'CONFIRMED'
	RETURNING ` + bookingColumns

	b, err := scanBooking(t.tx.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCannotCancel
		}

		return nil, fmt.Errorf("failed to cancel booking: %w", classify(err))
	}

	return b, nil
}

func (t *ledgerTx) AppendBookingEvent(ctx context.Context, event *domain.BookingEvent) error {
	query := `
	INSERT INTO booking_events (booking_id, type, payload, created_at)
	VALUES ($1, $2, $3::jsonb, $4)
	RETURNING id
	`

	err := t.tx.QueryRowContext(ctx, query, event.BookingID, event.Type, string(event.Payload), event.CreatedAt).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to append booking event: %w", classify(err))
	}

	return nil
}

func (t *ledgerTx) LedgerTotals(ctx context.Context, eventID uuid.UUID) (domain.LedgerTotals, error) {
	query := `
	SELECT
		COALESCE(SUM((be.payload->>'quantity')::int) FILTER (WHERE be.type = 'BOOK'), 0),
		COALESCE(SUM((be.payload->>'quantity')::int) FILTER (WHERE be.type = 'CANCEL'), 0)
	FROM booking_events be
	JOIN bookings b ON b.id = be.booking_id
	WHERE b.event_id = $1
	`

	var totals domain.LedgerTotals
	if err := t.tx.QueryRowContext(ctx, query, eventID).Scan(&totals.Booked, &totals.Cancelled); err != nil {
		return domain.LedgerTotals{}, fmt.Errorf("failed to total ledger: %w", classify(err))
	}

	return totals, nil
}

const statsUpsert = `
	INSERT INTO event_booking_stats (event_id, name, capacity, total_booked, utilization, refreshed_at)
	SELECT
		e.id,
		e.name,
		e.capacity,
		COALESCE(SUM(b.quantity) FILTER (WHERE b.status = 'CONFIRMED'), 0),
		CASE WHEN e.capacity > 0
			THEN COALESCE(SUM(b.quantity) FILTER (WHERE b.status = 'CONFIRMED'), 0)::float8 / e.capacity
		END,
		NOW()
	FROM events e
	LEFT JOIN bookings b ON b.event_id = e.id
	%s
	GROUP BY e.id, e.name, e.capacity
	ON CONFLICT (event_id) DO UPDATE
	SET name = EXCLUDED.name,
		capacity = EXCLUDED.capacity,
		total_booked = EXCLUDED.total_booked,
		utilization = EXCLUDED.utilization,
		refreshed_at = EXCLUDED.refreshed_at
	`

// statsLockKey names the transaction-scoped advisory lock guarding
// event_booking_stats. Per-event refreshes take it shared and full refreshes
// take it exclusive, so a full upsert never overwrites a row with totals read
// before a concurrent per-event refresh committed. The lock is its own
// statement: under READ COMMITTED the upsert that follows reads a snapshot
// taken after every earlier holder has committed.
const statsLockKey int64 = 0x65766e7473

func (t *ledgerTx) RefreshEventStats(ctx context.Context, eventID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, statsLockKey); err != nil {
		return fmt.Errorf("failed to lock stats: %w", classify(err))
	}

	query := fmt.Sprintf(statsUpsert, "WHERE e.id = $1")

	if _, err := t.tx.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to refresh stats for event %s: %w", eventID, classify(err))
	}

	return nil
}

func (t *ledgerTx) RefreshAllStats(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, statsLockKey); err != nil {
		return fmt.Errorf("failed to lock stats: %w", classify(err))
	}

	query := fmt.Sprintf(statsUpsert, "")

	if _, err := t.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to refresh stats: %w", classify(err))
	}

	return nil
}
