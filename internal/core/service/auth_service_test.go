package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

func newTestAuthService(t *testing.T) (*AuthService, *stubUserRepo, *TokenService, *recordingSink, *memRevocationList) {
	t.Helper()
	clock := newFakeClock()
	list := newMemRevocationList()
	tokens := newTestTokenService(t, clock, time.Hour, WithRevocationList(list))
	repo := newStubUserRepo()
	sink := &recordingSink{}
	svc := NewAuthService(repo, tokens, zerolog.Nop(),
		WithAuditSink(sink),
		WithBcryptCost(bcrypt.MinCost),
		WithAuthClock(clock.Now),
	)
	return svc, repo, tokens, sink, list
}

func TestAuthService_Signup_Success(t *testing.T) {
	svc, _, _, sink, _ := newTestAuthService(t)

	user, err := svc.Signup(context.Background(), ports.SignupInput{
		Username: "alice", Email: "alice@example.com", Password: "pass123", Roles: []string{"seller"},
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !slices.Equal(user.Roles, []string{domain.RoleSeller}) {
		t.Fatalf("unexpected roles: %v", user.Roles)
	}
	if !user.Enabled {
		t.Fatalf("expected new account to be enabled")
	}
	if got := sink.types(); !slices.Equal(got, []domain.AuthEventType{domain.EventSignup}) {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestAuthService_Signup_DefaultRole(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(t)
	user, err := svc.Signup(context.Background(), ports.SignupInput{Username: "bob", Email: "bob@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if !slices.Equal(user.Roles, []string{domain.RoleUser}) {
		t.Fatalf("expected USER role, got %v", user.Roles)
	}
}

func TestAuthService_Signup_Duplicates(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, ports.SignupInput{Username: "bob", Email: "bob@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := svc.Signup(ctx, ports.SignupInput{Username: "bob", Email: "other@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := svc.Signup(ctx, ports.SignupInput{Username: "robert", Email: "bob@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestAuthService(t)
	if _, err := svc.Signup(context.Background(), ports.SignupInput{Username: "", Password: "pass"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Signin_Success(t *testing.T) {
	svc, _, tokens, sink, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, ports.SignupInput{Username: "carol", Email: "carol@example.com", Password: "s3cret", Roles: []string{"admin"}}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	result, err := svc.Signin(ctx, "carol", "s3cret")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if result.User == nil || result.User.Username != "carol" {
		t.Fatalf("unexpected user: %+v", result.User)
	}

	claims, err := tokens.Validate(ctx, result.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != "carol" {
		t.Fatalf("expected subject carol, got %s", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(result.ExpiresAt) {
		t.Fatalf("expiry mismatch: %v vs %v", claims.ExpiresAt, result.ExpiresAt)
	}
	if got := sink.types(); !slices.Equal(got, []domain.AuthEventType{domain.EventSignup, domain.EventSignin}) {
		t.Fatalf("unexpected audit events: %v", got)
	}
}

func TestAuthService_Signin_Failures(t *testing.T) {
	svc, repo, _, sink, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _ = svc.Signup(ctx, ports.SignupInput{Username: "dave", Email: "dave@example.com", Password: "goodpass"})
	hash, _ := bcrypt.GenerateFromPassword([]byte("goodpass"), bcrypt.MinCost)
	repo.put(&domain.User{Username: "frozen", PasswordHash: string(hash), Enabled: false})

	cases := []struct{ user, pass string }{
		{"dave", "badpass"},
		{"ghost", "pass"},
		{"frozen", "goodpass"},
		{"", "pass"},
	}
	for _, tc := range cases {
		if _, err := svc.Signin(ctx, tc.user, tc.pass); err != domain.ErrInvalidCredentials {
			t.Fatalf("Signin(%q): expected ErrInvalidCredentials, got %v", tc.user, err)
		}
	}

	failed := 0
	for _, typ := range sink.types() {
		if typ == domain.EventSigninFailed {
			failed++
		}
	}
	if failed != 3 {
		t.Fatalf("expected 3 signin_failed events, got %d", failed)
	}
}

func TestAuthService_Signin_UnknownUserPaysHashComparison(t *testing.T) {
	svc, repo, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("goodpass"), bcrypt.MinCost)
	repo.put(&domain.User{Username: "erin", PasswordHash: string(hash), Enabled: true})

	var compared [][]byte
	svc.compare = func(h, pw []byte) error {
		compared = append(compared, h)
		return bcrypt.CompareHashAndPassword(h, pw)
	}

	if _, err := svc.Signin(ctx, "ghost", "goodpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Signin(ctx, "erin", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	if len(compared) != 2 {
		t.Fatalf("expected a hash comparison on both failure paths, got %d", len(compared))
	}
	cost, err := bcrypt.Cost(compared[0])
	if err != nil {
		t.Fatalf("unknown user was compared against a non-bcrypt hash: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Fatalf("expected dummy hash at the configured cost %d, got %d", bcrypt.MinCost, cost)
	}
}

func TestAuthService_Signin_StoreError(t *testing.T) {
	svc, repo, _, _, _ := newTestAuthService(t)
	repo.findErr = errors.New("timeout")
	if _, err := svc.Signin(context.Background(), "dave", "pass"); err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestAuthService_Signout_RevokesToken(t *testing.T) {
	svc, _, tokens, sink, list := newTestAuthService(t)
	ctx := context.Background()

	_, _ = svc.Signup(ctx, ports.SignupInput{Username: "erin", Email: "erin@example.com", Password: "pass123"})
	result, err := svc.Signin(ctx, "erin", "pass123")
	if err != nil {
		t.Fatalf("Signin: %v", err)
	}

	if err := svc.Signout(ctx, result.Token); err != nil {
		t.Fatalf("Signout: %v", err)
	}
	if len(list.entries) != 1 {
		t.Fatalf("expected one revoked token, got %d", len(list.entries))
	}
	if _, err := tokens.Validate(ctx, result.Token); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected revoked token, got %v", err)
	}
	if got := sink.types(); got[len(got)-1] != domain.EventSignout {
		t.Fatalf("expected signout audit event, got %v", got)
	}
}

func TestAuthService_Signout_UnusableTokenIsNotAnError(t *testing.T) {
	svc, _, _, _, list := newTestAuthService(t)
	for _, raw := range []string{"", "garbage"} {
		if err := svc.Signout(context.Background(), raw); err != nil {
			t.Fatalf("Signout(%q): %v", raw, err)
		}
	}
	if len(list.entries) != 0 {
		t.Fatalf("expected nothing revoked")
	}
}
