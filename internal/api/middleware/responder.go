package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// ErrorBody is the structured payload for authentication and authorization
// rejections.
type ErrorBody struct {
	Status  int    `json:"Status"`
	Error   string `json:"Error"`
	Message string `json:"Message"`
	Path    string `json:"Path"`
}

// Unauthorized writes a 401 for a request that reached a protected path
// without a valid authentication. reason selects the message.
func Unauthorized(c echo.Context, reason error) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="sb-ecom"`)
	return c.JSON(http.StatusUnauthorized, ErrorBody{
		Status:  http.StatusUnauthorized,
		Error:   http.StatusText(http.StatusUnauthorized),
		Message: domain.UnauthorizedMessage(reason),
		Path:    c.Request().URL.Path,
	})
}

// Forbidden writes a 403 for an authenticated principal missing role.
func Forbidden(c echo.Context, role string) error {
	msg := "access is denied"
	if role != "" {
		msg = "access is denied: role " + role + " is required"
	}
	return c.JSON(http.StatusForbidden, ErrorBody{
		Status:  http.StatusForbidden,
		Error:   http.StatusText(http.StatusForbidden),
		Message: msg,
		Path:    c.Request().URL.Path,
	})
}
