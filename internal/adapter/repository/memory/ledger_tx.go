package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/evently/internal/core/domain"
)

type ledgerTx struct {
	state *state
	fault FaultFunc
	now   func() time.Time
}

func (t *ledgerTx) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.fault != nil {
		return t.fault(op)
	}
	return nil
}

func (t *ledgerTx) FindBookingByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	if err := t.check(ctx, "FindBookingByIdempotencyKey"); err != nil {
		return nil, err
	}
	id, ok := t.state.keys[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b := t.state.bookings[id]
	return &b, nil
}

func (t *ledgerTx) ReadInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	if err := t.check(ctx, "ReadInventory"); err != nil {
		return nil, err
	}
	inv, ok := t.state.inventory[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &inv, nil
}

func (t *ledgerTx) ReserveSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error) {
	if err := t.check(ctx, "ReserveSeats"); err != nil {
		return nil, err
	}
	inv, ok := t.state.inventory[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	if !inv.CanReserve(quantity) {
		return nil, domain.ErrInsufficientInventory
	}
	inv.SeatsAvailable -= quantity
	inv.SeatsReserved += quantity
	inv.Version++
	t.state.inventory[eventID] = inv
	return &inv, nil
}

func (t *ledgerTx) ReleaseSeats(ctx context.Context, eventID uuid.UUID, quantity int) (*domain.Inventory, error) {
	if err := t.check(ctx, "ReleaseSeats"); err != nil {
		return nil, err
	}
	inv, ok := t.state.inventory[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	if inv.SeatsReserved < quantity {
		return nil, fmt.Errorf("release %d seats for event %s: only %d reserved", quantity, eventID, inv.SeatsReserved)
	}
	inv.SeatsAvailable += quantity
	inv.SeatsReserved -= quantity
	inv.Version++
	t.state.inventory[eventID] = inv
	return &inv, nil
}

func (t *ledgerTx) InsertBooking(ctx context.Context, booking *domain.Booking) error {
	if err := t.check(ctx, "InsertBooking"); err != nil {
		return err
	}
	if _, exists := t.state.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	if booking.IdempotencyKey != nil {
		if _, taken := t.state.keys[*booking.IdempotencyKey]; taken {
			return domain.ErrDuplicateIdempotencyKey
		}
		t.state.keys[*booking.IdempotencyKey] = booking.ID
	}
	t.state.bookings[booking.ID] = *booking
	return nil
}

func (t *ledgerTx) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := t.check(ctx, "CancelBooking"); err != nil {
		return nil, err
	}
	b, ok := t.state.bookings[bookingID]
	if !ok || !b.IsCancellable() {
		return nil, domain.ErrCannotCancel
	}
	b.Status = domain.BookingCancelled
	b.UpdatedAt = t.now().UTC()
	t.state.bookings[bookingID] = b
	return &b, nil
}

func (t *ledgerTx) AppendBookingEvent(ctx context.Context, event *domain.BookingEvent) error {
	if err := t.check(ctx, "AppendBookingEvent"); err != nil {
		return err
	}
	if _, ok := t.state.bookings[event.BookingID]; !ok {
		return fmt.Errorf("append booking event: booking %s does not exist", event.BookingID)
	}
	event.ID = int64(len(t.state.ledger) + 1)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = t.now().UTC()
	}
	t.state.ledger = append(t.state.ledger, *event)
	return nil
}

func (t *ledgerTx) LedgerTotals(ctx context.Context, eventID uuid.UUID) (domain.LedgerTotals, error) {
	if err := t.check(ctx, "LedgerTotals"); err != nil {
		return domain.LedgerTotals{}, err
	}
	var totals domain.LedgerTotals
	for _, e := range t.state.ledger {
		b, ok := t.state.bookings[e.BookingID]
		if !ok || b.EventID != eventID {
			continue
		}
		var p struct {
			Quantity int `json:"quantity"`
		}
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return domain.LedgerTotals{}, fmt.Errorf("decode ledger entry %d: %w", e.ID, err)
		}
		switch e.Type {
		case domain.BookingEventBook:
			totals.Booked += p.Quantity
		case domain.BookingEventCancel:
			totals.Cancelled += p.Quantity
		}
	}
	return totals, nil
}

func (t *ledgerTx) RefreshEventStats(ctx context.Context, eventID uuid.UUID) error {
	if err := t.check(ctx, "RefreshEventStats"); err != nil {
		return err
	}
	event, ok := t.state.events[eventID]
	if !ok {
		delete(t.state.stats, eventID)
		return nil
	}
	t.state.stats[eventID] = t.computeStats(event)
	return nil
}

func (t *ledgerTx) RefreshAllStats(ctx context.Context) error {
	if err := t.check(ctx, "RefreshAllStats"); err != nil {
		return err
	}
	stats := make(map[uuid.UUID]domain.EventStats, len(t.state.events))
	for id, event := range t.state.events {
		stats[id] = t.computeStats(event)
	}
	t.state.stats = stats
	return nil
}

func (t *ledgerTx) computeStats(event domain.Event) domain.EventStats {
	var booked int64
	for _, b := range t.state.bookings {
		if b.EventID == event.ID && b.Status == domain.BookingConfirmed {
			booked += int64(b.Quantity)
		}
	}
	return domain.EventStats{
		EventID:     event.ID,
		Name:        event.Name,
		Capacity:    event.Capacity,
		TotalBooked: &booked,
		Utilization: domain.ComputeUtilization(booked, event.Capacity),
		RefreshedAt: t.now().UTC(),
	}
}
