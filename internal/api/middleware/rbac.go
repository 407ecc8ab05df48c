package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// RequireRole guards a route group with a role check on the principal in the
// request context, independent of the path policy table.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := domain.AuthenticationFromContext(c.Request().Context())
			principal, ok := auth.Principal()
			if !ok {
				return Unauthorized(c, auth.Failure())
			}
			for _, r := range allowedRoles {
				if principal.HasRole(r) {
					return next(c)
				}
			}
			required := ""
			if len(allowedRoles) == 1 {
				required = allowedRoles[0]
			}
			return Forbidden(c, required)
		}
	}
}
