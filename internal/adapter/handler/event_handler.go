package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/evently/internal/core/services"
)

type EventHandler struct {
	svc *services.EventService
}

func NewEventHandler(svc *services.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

type createEventRequest struct {
	Name        string     `json:"name"`
	Venue       *string    `json:"venue"`
	Description *string    `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    *int       `json:"capacity"`
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json body")
	}
	if req.Capacity == nil {
		return errorJSON(c, http.StatusBadRequest, "capacity is required")
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), services.CreateEventRequest{
		Name:        req.Name,
		Venue:       req.Venue,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    *req.Capacity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, newEventResponse(*event))
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid limit")
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid offset")
	}

	events, err := h.svc.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid event id")
	}

	event, err := h.svc.GetEvent(c.Request().Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, newEventResponse(*event))
}

func (h *EventHandler) GetAvailability(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid event id")
	}

	inv, err := h.svc.Availability(c.Request().Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, availabilityResponse{
		EventID:        inv.EventID,
		SeatsAvailable: inv.SeatsAvailable,
		SeatsReserved:  inv.SeatsReserved,
		Version:        inv.Version,
	})
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
