package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// currentPrincipal returns the principal installed by the authentication
// filter. Handlers behind an AUTHENTICATED rule always have one; the error
// path covers routes registered outside the policy.
func currentPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(c.Request().Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}
