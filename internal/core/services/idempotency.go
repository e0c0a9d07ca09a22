package services

import (
	"context"
	"errors"
	"strings"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/ports"
)

const maxIdempotencyKeyLength = 255

// NormalizeIdempotencyKey picks the body key over the header key, as clients
// may send either.
func NormalizeIdempotencyKey(bodyKey, headerKey string) string {
	if k := strings.TrimSpace(bodyKey); k != "" {
		return k
	}
	return strings.TrimSpace(headerKey)
}

func validIdempotencyKey(key string) bool {
	return len(key) <= maxIdempotencyKeyLength
}

// resolveIdempotencyKey returns the booking already recorded under key, or
// nil when the key is unused. It must run inside the unit of work that would
// insert the new booking.
func resolveIdempotencyKey(ctx context.Context, tx ports.LedgerTx, key string) (*domain.Booking, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := tx.FindBookingByIdempotencyKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func reusedResult(b *domain.Booking) ReservationResult {
	return ReservationResult{
		Outcome:   OutcomeReused,
		BookingID: b.ID,
		Status:    b.Status,
	}
}
