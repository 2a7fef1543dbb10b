package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// BlockList answers whether a client address is refused.
type BlockList interface {
	IsBlocked(ctx context.Context, ip string) (bool, error)
}

// BlockedIP rejects requests whose real IP is on the block list with 403.
// Lookup failures let the request through.
func BlockedIP(list BlockList, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			blocked, err := list.IsBlocked(c.Request().Context(), ip)
			if err != nil {
				logger.Warn("blocked ip lookup failed", "ip", ip, "error", err)
				return next(c)
			}
			if blocked {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "access denied"})
			}
			return next(c)
		}
	}
}
