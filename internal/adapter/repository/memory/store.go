// Package memory is an in-process ledger store with the same transactional
// contract as the Postgres adapter. A unit of work holds the store lock for
// its whole duration and works on a private copy of the state, which replaces
// the committed state only when the unit of work succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

type state struct {
	events    map[uuid.UUID]domain.Event
	inventory map[uuid.UUID]domain.Inventory
	bookings  map[uuid.UUID]domain.Booking
	keys      map[string]uuid.UUID
	ledger    []domain.BookingEvent
	stats     map[uuid.UUID]domain.EventStats
}

func newState() *state {
	return &state{
		events:    make(map[uuid.UUID]domain.Event),
		inventory: make(map[uuid.UUID]domain.Inventory),
		bookings:  make(map[uuid.UUID]domain.Booking),
		keys:      make(map[string]uuid.UUID),
		stats:     make(map[uuid.UUID]domain.EventStats),
	}
}

func (s *state) clone() *state {
	c := &state{
		events:    make(map[uuid.UUID]domain.Event, len(s.events)),
		inventory: make(map[uuid.UUID]domain.Inventory, len(s.inventory)),
		bookings:  make(map[uuid.UUID]domain.Booking, len(s.bookings)),
		keys:      make(map[string]uuid.UUID, len(s.keys)),
		ledger:    make([]domain.BookingEvent, len(s.ledger)),
		stats:     make(map[uuid.UUID]domain.EventStats, len(s.stats)),
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	copy(c.ledger, s.ledger)
	for k, v := range s.stats {
		c.stats[k] = v
	}
	return c
}

// FaultFunc is consulted before every transactional operation; a non-nil
// return aborts that operation with the error.
type FaultFunc func(op string) error

type Store struct {
	mu    sync.Mutex
	state *state
	fault FaultFunc
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// InjectFault installs f for subsequent units of work. Passing nil clears it.
func (s *Store) InjectFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &ledgerTx{state: s.state.clone(), fault: s.fault, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) GetInventory(ctx context.Context, eventID uuid.UUID) (*domain.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.state.inventory[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &inv, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := make([]domain.Booking, 0)
	for _, b := range s.state.bookings {
		if b.UserID == userID {
			bookings = append(bookings, b)
		}
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (s *Store) ListEventStats(ctx context.Context) ([]domain.EventStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]domain.EventStats, 0, len(s.state.stats))
	for _, row := range s.state.stats {
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].TotalBooked, rows[j].TotalBooked
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		return rows[i].EventID.String() < rows[j].EventID.String()
	})
	return rows, nil
}

// CreateEvent stores the event and its inventory row together.
func (s *Store) CreateEvent(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = s.now().UTC()
	event.SeatsAvailable = event.Capacity
	s.state.events[event.ID] = *event
	s.state.inventory[event.ID] = domain.Inventory{
		EventID:        event.ID,
		SeatsAvailable: event.Capacity,
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.state.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	event.SeatsAvailable = s.state.inventory[eventID].SeatsAvailable
	return &event, nil
}

func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]domain.Event, 0, len(s.state.events))
	for id, e := range s.state.events {
		e.SeatsAvailable = s.state.inventory[id].SeatsAvailable
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	if offset >= len(events) {
		return []domain.Event{}, nil
	}
	events = events[offset:]
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events, nil
}
