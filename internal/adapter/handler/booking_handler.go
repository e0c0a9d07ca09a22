package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/evently/internal/core/services"
)

type BookingHandler struct {
	svc *services.BookingService
}

func NewBookingHandler(svc *services.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type createBookingRequest struct {
	UserID         string `json:"user_id"`
	EventID        string `json:"event_id"`
	Quantity       int    `json:"quantity"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateBooking answers 201 for a new booking and 200 when the idempotency
// key matched an earlier one.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user_id")
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid event_id")
	}

	result, err := h.svc.Reserve(c.Request().Context(), services.ReserveRequest{
		UserID:         userID,
		EventID:        eventID,
		Quantity:       req.Quantity,
		IdempotencyKey: services.NormalizeIdempotencyKey(req.IdempotencyKey, c.Request().Header.Get("Idempotency-Key")),
	})
	if err != nil {
		return writeError(c, err)
	}

	switch result.Outcome {
	case services.OutcomeConfirmed:
		return c.JSON(http.StatusCreated, newReservationResponse(result))
	case services.OutcomeReused:
		return c.JSON(http.StatusOK, newReservationResponse(result))
	case services.OutcomeInsufficientInventory:
		return errorJSON(c, http.StatusConflict, "Not enough seats available")
	case services.OutcomeEventNotFound:
		return errorJSON(c, http.StatusNotFound, "Event not found")
	}
	return errorJSON(c, http.StatusInternalServerError, "internal server error")
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid booking id")
	}

	result, err := h.svc.Cancel(c.Request().Context(), bookingID)
	if err != nil {
		return writeError(c, err)
	}
	if !result.Succeeded() {
		return errorJSON(c, http.StatusBadRequest, "Cannot cancel booking")
	}

	return c.JSON(http.StatusOK, cancellationResponse{
		ID:                result.BookingID,
		EventID:           result.EventID,
		CancelledQuantity: result.ReleasedQuantity,
	})
}

func (h *BookingHandler) ListUserBookings(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user_id")
	}

	bookings, err := h.svc.ListBookingsForUser(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, newBookingResponses(bookings))
}
