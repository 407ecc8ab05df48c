package ports

import (
	"context"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// PrincipalLoader resolves a token subject into the current principal.
type PrincipalLoader interface {
	Load(ctx context.Context, username string) (domain.Principal, error)
}

// Authenticator runs one authentication pass for a raw token. It never
// fails: every problem is folded into an unauthenticated result.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) domain.Authentication
}
