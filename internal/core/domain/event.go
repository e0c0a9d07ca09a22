package domain

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID             uuid.UUID
	Name           string
	Venue          *string
	Description    *string
	StartTime      time.Time
	EndTime        *time.Time
	Capacity       int
	SeatsAvailable int
	CreatedAt      time.Time
}
