package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BookingEventType string

const (
	BookingEventBook   BookingEventType = "BOOK"
	BookingEventCancel BookingEventType = "CANCEL"
)

// BookingEvent is an append-only audit ledger entry. Rows are never updated
// or deleted once written.
type BookingEvent struct {
	ID        int64
	BookingID uuid.UUID
	Type      BookingEventType
	Payload   json.RawMessage
	CreatedAt time.Time
}

type BookPayload struct {
	Quantity int       `json:"quantity"`
	UserID   uuid.UUID `json:"user_id"`
	EventID  uuid.UUID `json:"event_id"`
}

type CancelPayload struct {
	Quantity int       `json:"quantity"`
	EventID  uuid.UUID `json:"event_id"`
}

func NewBookEvent(b *Booking, now time.Time) (*BookingEvent, error) {
	payload, err := json.Marshal(BookPayload{Quantity: b.Quantity, UserID: b.UserID, EventID: b.EventID})
	if err != nil {
		return nil, err
	}
	return &BookingEvent{BookingID: b.ID, Type: BookingEventBook, Payload: payload, CreatedAt: now}, nil
}

func NewCancelEvent(b *Booking, now time.Time) (*BookingEvent, error) {
	payload, err := json.Marshal(CancelPayload{Quantity: b.Quantity, EventID: b.EventID})
	if err != nil {
		return nil, err
	}
	return &BookingEvent{BookingID: b.ID, Type: BookingEventCancel, Payload: payload, CreatedAt: now}, nil
}

// LedgerTotals is the replay of the audit ledger for one event.
type LedgerTotals struct {
	Booked    int
	Cancelled int
}

func (t LedgerTotals) Outstanding() int {
	return t.Booked - t.Cancelled
}
