package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

// MinSecretBytes is the shortest HS256 key the service accepts.
const MinSecretBytes = 32

// TokenService signs and verifies HS256 tokens carrying a subject, an id and
// issued-at/expiry timestamps. It is safe for concurrent use.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked ports.RevocationList
	parser  *jwt.Parser
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithRevocationList enables server-side revocation of signed-out tokens.
func WithRevocationList(list ports.RevocationList) TokenOption {
	return func(s *TokenService) { s.revoked = list }
}

func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretBytes, len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Expiry is checked by Validate at millisecond resolution.
	s.parser = jwt.NewParser(jwt.WithoutClaimsValidation())
	return s, nil
}

// DecodeSecret decodes a base64 signing secret (standard or URL alphabet).
func DecodeSecret(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("signing secret is empty")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(encoded); err == nil {
			return key, nil
		}
	}
	return nil, errors.New("signing secret is not valid base64")
}

// TTL is the lifetime of newly issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject valid from now until now+TTL.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, fmt.Errorf("issue token: %w", domain.ErrTokenEmptyClaims)
	}
	now := s.now()
	claims := tokenClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  newMSTime(now),
		ExpiresAt: newMSTime(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Validate verifies the signature and expiry of raw. A token is valid only
// while now < exp. Failures are reported as one of the domain token errors.
func (s *TokenService) Validate(ctx context.Context, raw string) (*domain.TokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrTokenAbsent
	}

	var claims tokenClaims
	if _, err := s.parser.ParseWithClaims(raw, &claims, s.keyFunc); err != nil {
		return nil, classifyParseError(err)
	}
	if claims.ExpiresAt == nil {
		return nil, domain.ErrTokenEmptyClaims
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.IssuedAt == nil {
		return nil, domain.ErrTokenEmptyClaims
	}

	out := &domain.TokenClaims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if s.revoked != nil && out.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, out.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrTokenRevoked
		}
	}
	return out, nil
}

// Revoke adds claims to the revocation list until the token would expire
// anyway. Without a revocation list it is a no-op.
func (s *TokenService) Revoke(ctx context.Context, claims *domain.TokenClaims) error {
	if s.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if !s.now().Before(claims.ExpiresAt) {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, domain.ErrTokenUnsupported
	}
	return s.secret, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTokenUnsupported):
		return domain.ErrTokenUnsupported
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return domain.ErrTokenEmptyClaims
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenUnsupported
	default:
		return domain.ErrTokenMalformed
	}
}
