package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/apperr"
)

// internalKinds are reported by their sentinel text only, so storage and
// supplier details stay in the logs.
var internalKinds = []error{
	apperr.ErrUpstream,
	apperr.ErrConfigUnavailable,
	apperr.ErrPersistence,
}

// fail writes err as {"message": ...} with the status apperr assigns to it.
func fail(c echo.Context, err error) error {
	status := apperr.Status(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "internal server error"
		for _, kind := range internalKinds {
			if errors.Is(err, kind) {
				msg = kind.Error()
				break
			}
		}
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, echo.Map{"message": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
}
