package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health and info endpoints.
const Version = "1.0.0"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is a liveness probe for load balancers.  It never touches the
// database and always answers a plain "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HealthHandler serves the readiness and informational endpoints.
type HealthHandler struct {
	DB        Pinger
	APIPrefix string
	Log       logrus.FieldLogger
}

// Ready pings the database and reports 503 when it is unreachable.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		h.Log.WithError(err).Warn("health: database ping failed")
		return detail(c, http.StatusServiceUnavailable, "Database connection failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "healthy",
		"version":  Version,
		"database": "connected",
	})
}

// Root describes the service at "/".
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Activity Tracker API",
		"version": Version,
		"health":  "/health",
		"metrics": "/metrics",
	})
}

// APIInfo lists the versioned resource roots.
func (h *HealthHandler) APIInfo(c echo.Context) error {
	p := h.APIPrefix
	return c.JSON(http.StatusOK, echo.Map{
		"name":    "Activity Tracker API",
		"version": Version,
		"endpoints": echo.Map{
			"auth":       p + "/auth",
			"users":      p + "/users",
			"activities": p + "/activities",
		},
	})
}
