package ports

import (
	"context"
	"time"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// TokenCodec issues and verifies signed, time-bound credential tokens.
type TokenCodec interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
	Validate(ctx context.Context, raw string) (*domain.TokenClaims, error)
	Revoke(ctx context.Context, claims *domain.TokenClaims) error
}

// RevocationList records token ids that must be rejected before their expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
