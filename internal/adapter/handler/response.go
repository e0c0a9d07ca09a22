package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/evently/internal/core/domain"
	"github.com/srgjo27/evently/internal/core/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

// writeError maps service errors onto HTTP statuses. Business outcomes never
// reach here; they are returned as result values.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidIdempotencyKey),
		errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrInvalidEvent):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEventNotFound):
		return errorJSON(c, http.StatusNotFound, "Event not found")
	case errors.Is(err, domain.ErrCommitUnknown):
		if werr := errorJSON(c, http.StatusServiceUnavailable, "Booking state unknown, retry with the same idempotency key"); werr != nil {
			return werr
		}
		return err
	case errors.Is(err, domain.ErrStoreUnavailable),
		domain.IsTransient(err),
		errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, http.StatusServiceUnavailable, "Service temporarily unavailable, retry later")
	default:
		if werr := errorJSON(c, http.StatusInternalServerError, "internal server error"); werr != nil {
			return werr
		}
		// The response is committed, so echo only hands err to RequestLogger.
		return err
	}
}

type reservationResponse struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	Reused         bool      `json:"reused"`
	SeatsAvailable *int      `json:"seats_available,omitempty"`
}

func newReservationResponse(r services.ReservationResult) reservationResponse {
	resp := reservationResponse{ID: r.BookingID, Status: string(r.Status), Reused: r.Reused()}
	if !r.Reused() {
		seats := r.SeatsAvailable
		resp.SeatsAvailable = &seats
	}
	return resp
}

type cancellationResponse struct {
	ID                uuid.UUID `json:"id"`
	EventID           uuid.UUID `json:"event_id"`
	CancelledQuantity int       `json:"cancelled_quantity"`
}

type bookingResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	EventID        uuid.UUID `json:"event_id"`
	Quantity       int       `json:"quantity"`
	Status         string    `json:"status"`
	IdempotencyKey *string   `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingResponse{
			ID:             b.ID,
			UserID:         b.UserID,
			EventID:        b.EventID,
			Quantity:       b.Quantity,
			Status:         string(b.Status),
			IdempotencyKey: b.IdempotencyKey,
			CreatedAt:      b.CreatedAt,
			UpdatedAt:      b.UpdatedAt,
		})
	}
	return out
}

type eventResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Venue          *string    `json:"venue"`
	Description    *string    `json:"description"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	Capacity       int        `json:"capacity"`
	SeatsAvailable int        `json:"seats_available"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:             e.ID,
		Name:           e.Name,
		Venue:          e.Venue,
		Description:    e.Description,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		Capacity:       e.Capacity,
		SeatsAvailable: e.SeatsAvailable,
		CreatedAt:      e.CreatedAt,
	}
}

type availabilityResponse struct {
	EventID        uuid.UUID `json:"event_id"`
	SeatsAvailable int       `json:"seats_available"`
	SeatsReserved  int       `json:"seats_reserved"`
	Version        int64     `json:"version"`
}

type statsResponse struct {
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	TotalBooked *int64    `json:"total_booked"`
	Utilization *float64  `json:"utilization"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type reconcileResponse struct {
	EventID           uuid.UUID `json:"event_id"`
	Capacity          int       `json:"capacity"`
	SeatsAvailable    int       `json:"seats_available"`
	SeatsReserved     int       `json:"seats_reserved"`
	Version           int64     `json:"version"`
	LedgerBooked      int       `json:"ledger_booked"`
	LedgerCancelled   int       `json:"ledger_cancelled"`
	LedgerOutstanding int       `json:"ledger_outstanding"`
	Consistent        bool      `json:"consistent"`
}
