package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

type seedAccount struct {
	username string
	email    string
	password string
	roles    []string
}

var defaultAccounts = []seedAccount{
	{username: "user1", email: "user1@example.com", password: "password1", roles: []string{"user"}},
	{username: "seller1", email: "seller1@example.com", password: "password2", roles: []string{"seller"}},
	{username: "admin", email: "admin@example.com", password: "adminPass", roles: []string{"user", "seller", "admin"}},
}

// SeedDefaultUsers creates the demo accounts that do not exist yet and
// resets the roles of those that do. It is idempotent and meant for
// development environments only.
func SeedDefaultUsers(ctx context.Context, auth *AuthService, users ports.UserRepository, log zerolog.Logger) error {
	for _, acc := range defaultAccounts {
		_, err := auth.Signup(ctx, ports.SignupInput{
			Username: acc.username,
			Email:    acc.email,
			Password: acc.password,
			Roles:    acc.roles,
		})
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			log.Warn().Str("username", acc.username).Str("email", acc.email).
				Msg("seed user skipped, email belongs to another account")
		case errors.Is(err, domain.ErrUsernameTaken):
			roles := domain.NormalizeRoles(domain.ResolveSignupRoles(acc.roles))
			if _, err := users.UpdateRoles(ctx, acc.username, roles); err != nil {
				return fmt.Errorf("seed %s: reapply roles: %w", acc.username, err)
			}
			log.Debug().Str("username", acc.username).Strs("roles", roles).Msg("seed user already present, roles reapplied")
		case err != nil:
			return fmt.Errorf("seed %s: %w", acc.username, err)
		default:
			log.Info().Str("username", acc.username).Msg("seed user created")
		}
	}
	return nil
}
