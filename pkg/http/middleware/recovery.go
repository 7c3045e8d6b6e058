package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/shams7728/stock-market-project/pkg/logger"
)

// Recover turns a handler panic into a plain error, which the server's
// error handler renders as the catch-all 500.
func Recover(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					if log != nil {
						log.Error("panic recovered",
							logger.String("path", c.Path()),
							logger.Error(perr),
							logger.String("stack", string(debug.Stack())),
						)
					}
					err = fmt.Errorf("panic: %w", perr)
				}
			}()
			return next(c)
		}
	}
}
