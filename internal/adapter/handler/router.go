package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Bookings *BookingHandler
	Events   *EventHandler
	Admin    *AdminHandler
	DB       Pinger
}

// NewServer builds the echo instance with every route registered. Admin
// routes are guarded by JWT when adminSecret is set.
func NewServer(h Handlers, adminSecret string, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))

	e.GET("/healthz", Health(h.DB))

	e.POST("/bookings", h.Bookings.CreateBooking)
	e.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)
	e.GET("/bookings/user/:user_id", h.Bookings.ListUserBookings)

	e.POST("/events", h.Events.CreateEvent)
	e.GET("/events", h.Events.ListEvents)
	e.GET("/events/:id", h.Events.GetEvent)
	e.GET("/events/:id/availability", h.Events.GetAvailability)

	admin := e.Group("/admin")
	if adminSecret != "" {
		admin.Use(JWTAuth(adminSecret), RequireRole(RoleAdmin))
	} else {
		log.Warn("ADMIN_JWT_SECRET is empty; admin routes are unauthenticated")
	}
	admin.GET("/analytics", h.Admin.Analytics)
	admin.POST("/analytics/refresh", h.Admin.RebuildAnalytics)
	admin.GET("/events/:id/reconcile", h.Admin.Reconcile)

	return e
}

// Health answers ok, or 503 when the database ping fails.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
