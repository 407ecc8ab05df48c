package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

type principalLoader struct {
	users ports.UserRepository
}

// NewPrincipalLoader returns a loader that reads the user store on every
// call. Nothing is cached, so role and enablement changes apply to the next
// request.
func NewPrincipalLoader(users ports.UserRepository) ports.PrincipalLoader {
	return &principalLoader{users: users}
}

func (l *principalLoader) Load(ctx context.Context, username string) (domain.Principal, error) {
	user, err := l.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Principal{}, domain.ErrPrincipalNotFound
		}
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}
	return domain.NewPrincipal(user), nil
}
