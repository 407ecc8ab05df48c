package domain

import (
	"context"
	"errors"
)

// Authentication is the outcome of the per-request authentication pass:
// either a loaded Principal or the reason the request stays anonymous.
type Authentication struct {
	principal *Principal
	failure   error
}

// Authenticated returns a successful result for p.
func Authenticated(p Principal) Authentication {
	return Authentication{principal: &p}
}

// Unauthenticated returns an anonymous result. A nil reason is recorded as
// ErrTokenAbsent.
func Unauthenticated(reason error) Authentication {
	if reason == nil {
		reason = ErrTokenAbsent
	}
	return Authentication{failure: reason}
}

func (a Authentication) IsAuthenticated() bool { return a.principal != nil }

// Principal returns a copy of the authenticated principal.
func (a Authentication) Principal() (Principal, bool) {
	if a.principal == nil {
		return Principal{}, false
	}
	return *a.principal, true
}

// Failure is the reason the request is unauthenticated, or nil.
func (a Authentication) Failure() error {
	if a.principal != nil {
		return nil
	}
	if a.failure == nil {
		return ErrTokenAbsent
	}
	return a.failure
}

type authenticationContextKey struct{}

// ContextWithAuthentication installs a into the request context. It is the
// last step of an authentication pass; nothing is installed on abandonment.
func ContextWithAuthentication(ctx context.Context, a Authentication) context.Context {
	return context.WithValue(ctx, authenticationContextKey{}, a)
}

// AuthenticationFromContext returns the authentication installed for this
// request. A context without one is anonymous.
func AuthenticationFromContext(ctx context.Context) Authentication {
	if ctx == nil {
		return Unauthenticated(nil)
	}
	a, ok := ctx.Value(authenticationContextKey{}).(Authentication)
	if !ok {
		return Unauthenticated(nil)
	}
	return a
}

// PrincipalFromContext is a shortcut for handlers that only need the principal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	return AuthenticationFromContext(ctx).Principal()
}

// UnauthorizedMessage renders the client-facing reason for a 401. It names the
// failure kind only; no token content or internal detail.
func UnauthorizedMessage(reason error) string {
	switch {
	case reason == nil, errors.Is(reason, ErrTokenAbsent):
		return "full authentication is required to access this resource"
	case errors.Is(reason, ErrTokenExpired):
		return "token has expired"
	case errors.Is(reason, ErrTokenSignatureInvalid):
		return "token signature is invalid"
	case errors.Is(reason, ErrTokenUnsupported):
		return "token format is unsupported"
	case errors.Is(reason, ErrTokenEmptyClaims):
		return "token claims are empty"
	case errors.Is(reason, ErrTokenRevoked):
		return "token has been revoked"
	case errors.Is(reason, ErrTokenMalformed):
		return "token is malformed"
	case errors.Is(reason, ErrPrincipalNotFound):
		return "token subject no longer exists"
	case errors.Is(reason, ErrAccountDisabled):
		return "account is disabled"
	default:
		return "authentication failed"
	}
}
