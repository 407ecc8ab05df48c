package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/api/metrics"
	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

// Authenticate runs one authentication pass per non-public request and
// installs the result in the request context. It never rejects a request;
// Authorize decides what an anonymous request may reach.
func Authenticate(extractor TokenExtractor, authenticator ports.Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AccessFromContext(c).Class == domain.AccessPublic {
				return next(c)
			}

			req := c.Request()
			result := runPass(func() domain.Authentication {
				return authenticator.Authenticate(req.Context(), extractor.Extract(req))
			}, log)

			outcome := "authenticated"
			if !result.IsAuthenticated() {
				outcome = domain.FailureReason(result.Failure())
			}
			metrics.AuthenticationsTotal.WithLabelValues(outcome).Inc()

			if req.Context().Err() == nil {
				c.SetRequest(req.WithContext(domain.ContextWithAuthentication(req.Context(), result)))
			}
			return next(c)
		}
	}
}

func runPass(pass func() domain.Authentication, log zerolog.Logger) (result domain.Authentication) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("authentication filter panicked")
			result = domain.Unauthenticated(fmt.Errorf("authentication panic: %v", r))
		}
	}()
	return pass()
}
