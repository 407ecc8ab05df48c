package ports

import (
	"context"
	"time"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

// SignupInput carries a registration request after payload validation.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// SigninResult is a successful credential exchange.
type SigninResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Signin(ctx context.Context, username, password string) (*SigninResult, error)
	// Signout revokes rawToken when revocation is enabled. An empty or
	// invalid token is not an error: sign-out always succeeds for the client.
	Signout(ctx context.Context, rawToken string) error
}
