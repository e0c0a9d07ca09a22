package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStats is one row of the analytics projection. It is derived from the
// ledger and never authoritative.
type EventStats struct {
	EventID     uuid.UUID
	Name        string
	Capacity    int
	TotalBooked *int64
	Utilization *float64
	RefreshedAt time.Time
}

// ComputeUtilization returns nil for zero-capacity events.
func ComputeUtilization(totalBooked int64, capacity int) *float64 {
	if capacity <= 0 {
		return nil
	}
	u := float64(totalBooked) / float64(capacity)
	return &u
}
