package services

import (
	"github.com/google/uuid"
	"github.com/srgjo27/evently/internal/core/domain"
)

type ReservationOutcome string

const (
	OutcomeConfirmed             ReservationOutcome = "CONFIRMED"
	OutcomeReused                ReservationOutcome = "REUSED"
	OutcomeInsufficientInventory ReservationOutcome = "INSUFFICIENT_INVENTORY"
	OutcomeEventNotFound         ReservationOutcome = "EVENT_NOT_FOUND"
)

type ReserveRequest struct {
	UserID         uuid.UUID
	EventID        uuid.UUID
	Quantity       int
	IdempotencyKey string
}

// ReservationResult carries the business outcome of Reserve. BookingID and
// Status are set for OutcomeConfirmed and OutcomeReused only.
type ReservationResult struct {
	Outcome        ReservationOutcome
	BookingID      uuid.UUID
	Status         domain.BookingStatus
	SeatsAvailable int
}

func (r ReservationResult) Succeeded() bool {
	return r.Outcome == OutcomeConfirmed || r.Outcome == OutcomeReused
}

func (r ReservationResult) Reused() bool {
	return r.Outcome == OutcomeReused
}

type CancellationOutcome string

const (
	OutcomeCancelled    CancellationOutcome = "CANCELLED"
	OutcomeCannotCancel CancellationOutcome = "CANNOT_CANCEL"
)

type CancellationResult struct {
	Outcome          CancellationOutcome
	BookingID        uuid.UUID
	EventID          uuid.UUID
	ReleasedQuantity int
}

func (r CancellationResult) Succeeded() bool {
	return r.Outcome == OutcomeCancelled
}
