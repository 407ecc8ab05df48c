package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

// AuthService implements registration, sign-in and sign-out.
type AuthService struct {
	repo       ports.UserRepository
	tokens     ports.TokenCodec
	audit      ports.AuditSink
	log        zerolog.Logger
	now        func() time.Time
	bcryptCost int

	// dummyHash is compared against on unknown usernames so they cost as
	// much as a wrong password.
	dummyHash []byte
	compare   func(hash, password []byte) error
}

type AuthOption func(*AuthService)

// WithAuditSink records signin/signup/signout events.
func WithAuditSink(sink ports.AuditSink) AuthOption {
	return func(s *AuthService) { s.audit = sink }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenCodec, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:       repo,
		tokens:     tokens,
		audit:      discardSink{},
		log:        log,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
		compare:    bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sb-ecom unknown user"), s.bcryptCost)
	return s
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}
	if email != "" {
		taken, err = s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("signup: %w", err)
		}
		if taken {
			return nil, domain.ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Enabled:      true,
		Roles:        domain.ResolveSignupRoles(in.Roles),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.record(domain.EventSignup, created.Username, strings.Join(created.Roles, ","))
	s.log.Info().Str("username", created.Username).Strs("roles", created.Roles).Msg("user registered")
	return created, nil
}

// Signin exchanges credentials for a token. Unknown users, wrong passwords
// and disabled accounts are indistinguishable to the caller.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*ports.SigninResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.compare(s.dummyHash, []byte(password))
			s.record(domain.EventSigninFailed, username, "unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signin: %w", err)
	}

	if s.compare([]byte(user.PasswordHash), []byte(password)) != nil {
		s.record(domain.EventSigninFailed, username, "bad password")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Enabled {
		s.record(domain.EventSigninFailed, username, "account disabled")
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}

	s.record(domain.EventSignin, user.Username, "")
	return &ports.SigninResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) Signout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	claims, err := s.tokens.Validate(ctx, rawToken)
	if err != nil {
		s.log.Debug().Str("reason", domain.FailureReason(err)).Msg("signout with unusable token")
		return nil
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("signout: %w", err)
	}
	s.record(domain.EventSignout, claims.Subject, "")
	return nil
}

func (s *AuthService) record(kind domain.AuthEventType, username, detail string) {
	s.audit.Enqueue(domain.AuthEvent{
		Type:       kind,
		Username:   username,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
	})
}

type discardSink struct{}

func (discardSink) Enqueue(domain.AuthEvent) bool { return true }
