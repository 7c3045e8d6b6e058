package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	check   HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a health handler bounded by timeout.
func NewHealthHandler(check HealthCheck, timeout time.Duration) *HealthHandler {
	return &HealthHandler{check: check, timeout: timeout}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

// Health answers 200 when the check passes and 503 otherwise. It bypasses
// legacy status mode so health checks stay meaningful.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	if err := h.check(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}
