package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shams7728/stock-market-project/pkg/logger"
)

// DataResponse writes data with 200.
func DataResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// AsAppError classifies err. Unknown errors become the catch-all 500.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return NewAppError("ERR_HTTP", msg, he.Code)
	}
	return UnexpectedError(err)
}

// AppErrorResponse writes err as {"error","details"}. In legacy mode the
// status is always 200 and callers inspect the body.
func AppErrorResponse(c echo.Context, err error, legacy bool) error {
	appErr := AsAppError(err)
	status := appErr.Status
	if legacy {
		status = http.StatusOK
	}
	return c.JSON(status, ErrorResponse{Error: appErr.Message, Details: appErr.Details})
}

// ErrorHandler renders every error returned by handlers and middleware.
func ErrorHandler(log *logger.Logger, legacy bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		appErr := AsAppError(err)
		if appErr.Status >= http.StatusInternalServerError && log != nil {
			log.Error("request failed",
				logger.String("method", c.Request().Method),
				logger.String("path", c.Path()),
				logger.Int("status", appErr.Status),
				logger.Error(err),
			)
		}
		if c.Request().Method == http.MethodHead {
			status := appErr.Status
			if legacy {
				status = http.StatusOK
			}
			_ = c.NoContent(status)
			return
		}
		_ = AppErrorResponse(c, appErr, legacy)
	}
}
