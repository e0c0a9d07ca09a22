package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/evently/internal/core/services"
)

type AdminHandler struct {
	projector *services.AnalyticsProjector
	auditor   *services.LedgerAuditor
}

func NewAdminHandler(projector *services.AnalyticsProjector, auditor *services.LedgerAuditor) *AdminHandler {
	return &AdminHandler{projector: projector, auditor: auditor}
}

func (h *AdminHandler) Analytics(c echo.Context) error {
	rows, err := h.projector.Snapshot(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	out := make([]statsResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, statsResponse{
			EventID:     r.EventID,
			Name:        r.Name,
			Capacity:    r.Capacity,
			TotalBooked: r.TotalBooked,
			Utilization: r.Utilization,
			RefreshedAt: r.RefreshedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) RebuildAnalytics(c echo.Context) error {
	if err := h.projector.Rebuild(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Reconcile(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid event id")
	}

	report, err := h.auditor.Reconcile(c.Request().Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, reconcileResponse{
		EventID:           report.EventID,
		Capacity:          report.Capacity,
		SeatsAvailable:    report.SeatsAvailable,
		SeatsReserved:     report.SeatsReserved,
		Version:           report.Version,
		LedgerBooked:      report.LedgerBooked,
		LedgerCancelled:   report.LedgerCancelled,
		LedgerOutstanding: report.LedgerOutstanding,
		Consistent:        report.Consistent,
	})
}
