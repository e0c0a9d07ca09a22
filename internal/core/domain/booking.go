package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	EventID        uuid.UUID
	Quantity       int
	Status         BookingStatus
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewConfirmedBooking builds the row written by a successful reservation.
func NewConfirmedBooking(userID, eventID uuid.UUID, quantity int, idempotencyKey string, now time.Time) *Booking {
	b := &Booking{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Quantity:  quantity,
		Status:    BookingConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		b.IdempotencyKey = &key
	}
	return b
}

func (b *Booking) IsCancellable() bool {
	return b.Status == BookingConfirmed
}
