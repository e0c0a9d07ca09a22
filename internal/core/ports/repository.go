package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/srgjo27/evently/internal/core/domain"
)

// LedgerStore is the durable, transactional store for inventory, bookings and
// the audit ledger. WithinTx commits every write made through the LedgerTx or
// none of them.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error

	GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	ListEventStats(ctx context.Context) ([]domain.EventStats, error)
}

// LedgerTx is the set of reads and writes available inside one unit of work.
type LedgerTx interface {
	FindBookingByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	ReadInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error)

	// ReserveSeats is a single check-and-set: it decrements seats_available
	// only if at least quantity seats are available.
	ReserveSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error)
	ReleaseSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error)

	InsertBooking(ctx context.Context, booking *domain.Booking) error
	// CancelBooking transitions a CONFIRMED booking to CANCELLED and returns
	// the updated row.
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)

	AppendBookingEvent(ctx context.Context, event *domain.BookingEvent) error
	LedgerTotals(ctx context.Context, eventID uuid.UUID) (domain.LedgerTotals, error)

	RefreshEventStats(ctx context.Context, eventID uuid.UUID) error
	RefreshAllStats(ctx context.Context) error
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error)
}

// AvailabilityCache holds read-side copies of inventory and the analytics
// snapshot. It is never consulted by the write path. Getters return nil, nil
// on a miss.
type AvailabilityCache interface {
	GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error)
	SetInventory(ctx context.Context, inv *domain.Inventory) error
	GetSnapshot(ctx context.Context) ([]domain.EventStats, error)
	SetSnapshot(ctx context.Context, rows []domain.EventStats) error
	// Invalidate drops the snapshot and the inventory entries of eventIDs.
	Invalidate(ctx context.Context, eventIDs ...uuid.UUID) error
}

type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, booking domain.Booking) error
	PublishBookingCancelled(ctx context.Context, booking domain.Booking) error
}
