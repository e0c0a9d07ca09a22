package domain

import "github.com/google/uuid"

// Inventory holds the per-event seat counters. SeatsAvailable+SeatsReserved
// equals the event capacity whenever no unit of work is in flight.
type Inventory struct {
	EventID        uuid.UUID
	SeatsAvailable int
	SeatsReserved  int
	Version        int64
}

func (i Inventory) Capacity() int {
	return i.SeatsAvailable + i.SeatsReserved
}

func (i Inventory) CanReserve(quantity int) bool {
	return quantity > 0 && i.SeatsAvailable >= quantity
}
