package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests beyond the per-client budget with 429.
func RateLimit(l Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}
