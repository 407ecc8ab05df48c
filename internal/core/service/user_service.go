package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

type userService struct {
	repo  ports.UserRepository
	audit ports.AuditSink
}

// NewUserService returns the account administration service. sink may be nil.
func NewUserService(repo ports.UserRepository, sink ports.AuditSink) ports.UserService {
	if sink == nil {
		sink = discardSink{}
	}
	return &userService{repo: repo, audit: sink}
}

func (s *userService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, strings.TrimSpace(username))
}

// ReplaceRoles overwrites the role set of username. Every role must be one the
// service grants; the set may not be empty.
func (s *userService) ReplaceRoles(ctx context.Context, username string, roles []string) (*domain.User, error) {
	normalized := domain.NormalizeRoles(roles)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", domain.ErrInvalidRole)
	}
	for _, r := range normalized {
		if !domain.IsKnownRole(r) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRole, r)
		}
	}

	user, err := s.repo.UpdateRoles(ctx, strings.TrimSpace(username), normalized)
	if err != nil {
		return nil, err
	}

	s.audit.Enqueue(domain.AuthEvent{
		Type:       domain.EventRolesChanged,
		Username:   user.Username,
		Detail:     strings.Join(user.Roles, ","),
		OccurredAt: time.Now().UTC(),
	})
	return user, nil
}
