package domain

import (
	"context"
	"errors"
	"time"
)

// TokenClaims is the verified content of a credential token.
type TokenClaims struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// FailureReason returns a short label for an authentication failure,
// suitable for logs and metric labels. It never includes token content.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTokenAbsent):
		return "absent"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrTokenUnsupported):
		return "unsupported"
	case errors.Is(err, ErrTokenEmptyClaims):
		return "empty_claims"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrPrincipalNotFound):
		return "principal_not_found"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
