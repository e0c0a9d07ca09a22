package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

const bookingColumns = `id, user_id, event_id, quantity, status, idempotency_key, created_at, updated_at`

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// WithinTx runs fn in a READ COMMITTED transaction. Concurrent reservations
// on one event serialize on the inventory row lock taken by the conditional
// update, so no stronger isolation level is needed.
func (s *LedgerStore) WithinTx(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}

	defer tx.Rollback()

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classifyCommit(err))
	}

	return nil
}

func (s *LedgerStore) GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	query := `
	SELECT event_id, seats_available, seats_reserved, version
	FROM event_inventory
	WHERE event_id = $1
	`

	var inv domain.Inventory
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&inv.EventID,
		&inv.SeatsAvailable,
		&inv.SeatsReserved,
		&inv.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}

		return nil, classify(err)
	}

	return &inv, nil
}

func (s *LedgerStore) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	FROM bookings
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}

	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, *b)
	}

	return bookings, classify(rows.Err())
}

func (s *LedgerStore) ListEventStats(ctx context.Context) ([]domain.EventStats, error) {
	query := `
	SELECT event_id, name, capacity, total_booked, utilization, refreshed_at
	FROM event_booking_stats
	ORDER BY total_booked DESC NULLS LAST, event_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}

	defer rows.Close()

	stats := make([]domain.EventStats, 0)
	for rows.Next() {
		var row domain.EventStats
		var total sql.NullInt64
		var utilization sql.NullFloat64

		if err := rows.Scan(&row.EventID, &row.Name, &row.Capacity, &total, &utilization, &row.RefreshedAt); err != nil {
			return nil, err
		}

		if total.Valid {
			row.TotalBooked = &total.Int64
		}

		if utilization.Valid {
			row.Utilization = &utilization.Float64
		}

		stats = append(stats, row)
	}

	return stats, classify(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var key sql.NullString

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.EventID,
		&b.Quantity,
		&b.Status,
		&key,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if key.Valid {
		k := key.String
		b.IdempotencyKey = &k
	}

	return &b, nil
}
