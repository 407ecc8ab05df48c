package ports

import (
	"context"

	"github.com/sbecom/sb-ecom/internal/core/domain"
)

type UserService interface {
	GetUser(ctx context.Context, username string) (*domain.User, error)
	ReplaceRoles(ctx context.Context, username string, roles []string) (*domain.User, error)
}
