package echoapi

import (
	"github.com/labstack/echo/v4"
)

// roleMiddleware refuses requests whose session does not carry one of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := requireSession(ctx, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
