package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/ned/internal/server/middleware"
	"github.com/OFFIS-RIT/ned/pkg/oracle"

	"github.com/labstack/echo/v4"
)

// disambiguationStatus maps an engine error to an HTTP status.
func disambiguationStatus(err error) int {
	switch {
	case errors.Is(err, oracle.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func appFrom(c echo.Context) (*middleware.App, *middleware.AppUser) {
	ac := c.(*middleware.AppContext)
	return ac.App, ac.User
}
