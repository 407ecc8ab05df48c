package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/api/metrics"
	"github.com/sbecom/sb-ecom/internal/core/domain"
)

const accessKey = "access"

// Classify resolves the access class of the request once, before
// authentication, and stores it on the echo context.
func Classify(policy *domain.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.Set(accessKey, policy.Classify(req.Method, req.URL.Path))
			return next(c)
		}
	}
}

// AccessFromContext returns the class set by Classify. An unclassified
// request requires authentication.
func AccessFromContext(c echo.Context) domain.Access {
	if a, ok := c.Get(accessKey).(domain.Access); ok {
		return a
	}
	return domain.AuthenticatedAccess()
}

// Authorize enforces the classified access class against the authentication
// installed by Authenticate: 401 when none is present, 403 when the
// principal lacks the required role.
func Authorize(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			access := AccessFromContext(c)
			auth := domain.AuthenticationFromContext(c.Request().Context())
			decision := domain.Evaluate(access, auth)
			metrics.PolicyDecisionsTotal.WithLabelValues(access.String(), decision.String()).Inc()

			switch decision {
			case domain.DecisionUnauthenticated:
				log.Debug().
					Str("path", c.Request().URL.Path).
					Str("reason", domain.FailureReason(auth.Failure())).
					Msg("unauthenticated request to protected path")
				return Unauthorized(c, auth.Failure())
			case domain.DecisionForbidden:
				p, _ := auth.Principal()
				log.Info().
					Str("path", c.Request().URL.Path).
					Str("username", p.Username).
					Str("required_role", access.Role).
					Msg("request denied by policy")
				return Forbidden(c, access.Role)
			}
			return next(c)
		}
	}
}
