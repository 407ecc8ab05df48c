package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

type panickingCodec struct{ ports.TokenCodec }

func (panickingCodec) Validate(context.Context, string) (*domain.TokenClaims, error) {
	panic("boom")
}

type cancelingLoader struct {
	cancel context.CancelFunc
	inner  ports.PrincipalLoader
}

func (l cancelingLoader) Load(ctx context.Context, username string) (domain.Principal, error) {
	p, err := l.inner.Load(ctx, username)
	l.cancel()
	return p, err
}

func newAuthenticatorFixture(t *testing.T) (*TokenService, *stubUserRepo, *fakeClock, ports.Authenticator) {
	t.Helper()
	clock := newFakeClock()
	tokens := newTestTokenService(t, clock, time.Hour)
	repo := newStubUserRepo()
	repo.put(&domain.User{ID: "1", Username: "alice", Enabled: true, Roles: []string{domain.RoleUser}})
	repo.put(&domain.User{ID: "2", Username: "mallory", Enabled: false, Roles: []string{domain.RoleUser}})
	auth := NewAuthenticator(tokens, NewPrincipalLoader(repo), zerolog.Nop())
	return tokens, repo, clock, auth
}

func TestAuthenticator_Success(t *testing.T) {
	tokens, _, _, auth := newAuthenticatorFixture(t)
	token, _, _ := tokens.Issue("alice")

	result := auth.Authenticate(context.Background(), token)
	p, ok := result.Principal()
	if !ok {
		t.Fatalf("expected authenticated result, failure: %v", result.Failure())
	}
	if p.Username != "alice" || !p.HasRole(domain.RoleUser) {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthenticator_Failures(t *testing.T) {
	tokens, _, clock, auth := newAuthenticatorFixture(t)
	ghost, _, _ := tokens.Issue("ghost")
	disabled, _, _ := tokens.Issue("mallory")
	expiring, _, _ := tokens.Issue("alice")

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"absent", "", domain.ErrTokenAbsent},
		{"garbage", "garbage", domain.ErrTokenMalformed},
		{"unknown subject", ghost, domain.ErrPrincipalNotFound},
		{"disabled account", disabled, domain.ErrAccountDisabled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := auth.Authenticate(context.Background(), tc.token)
			if result.IsAuthenticated() {
				t.Fatalf("expected unauthenticated result")
			}
			if !errors.Is(result.Failure(), tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, result.Failure())
			}
		})
	}

	clock.Advance(2 * time.Hour)
	if result := auth.Authenticate(context.Background(), expiring); !errors.Is(result.Failure(), domain.ErrTokenExpired) {
		t.Fatalf("expected expired failure, got %v", result.Failure())
	}
}

func TestAuthenticator_StoreErrorIsUnauthenticated(t *testing.T) {
	tokens, repo, _, auth := newAuthenticatorFixture(t)
	token, _, _ := tokens.Issue("alice")
	repo.findErr = errors.New("connection refused")

	result := auth.Authenticate(context.Background(), token)
	if result.IsAuthenticated() {
		t.Fatalf("expected unauthenticated on store error")
	}
}

func TestAuthenticator_RecoversPanics(t *testing.T) {
	auth := NewAuthenticator(panickingCodec{}, nil, zerolog.Nop())

	result := auth.Authenticate(context.Background(), "anything")
	if result.IsAuthenticated() {
		t.Fatalf("expected unauthenticated after panic")
	}
	if result.Failure() == nil {
		t.Fatalf("expected failure reason after panic")
	}
}

func TestAuthenticator_CancelledContextIsAbandoned(t *testing.T) {
	tokens, repo, _, _ := newAuthenticatorFixture(t)
	token, _, _ := tokens.Issue("alice")

	ctx, cancel := context.WithCancel(context.Background())
	auth := NewAuthenticator(tokens, cancelingLoader{cancel: cancel, inner: NewPrincipalLoader(repo)}, zerolog.Nop())

	result := auth.Authenticate(ctx, token)
	if result.IsAuthenticated() {
		t.Fatalf("expected cancelled pass to stay unauthenticated")
	}
	if !errors.Is(result.Failure(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", result.Failure())
	}
}

func TestAuthenticator_RolesReflectCurrentStore(t *testing.T) {
	tokens, repo, _, auth := newAuthenticatorFixture(t)
	token, _, _ := tokens.Issue("alice")

	first, _ := auth.Authenticate(context.Background(), token).Principal()
	second, _ := auth.Authenticate(context.Background(), token).Principal()
	if len(first.Roles) != len(second.Roles) || first.Roles[0] != second.Roles[0] {
		t.Fatalf("expected identical roles across loads: %v vs %v", first.Roles, second.Roles)
	}

	if _, err := repo.UpdateRoles(context.Background(), "alice", []string{domain.RoleAdmin, domain.RoleUser}); err != nil {
		t.Fatalf("UpdateRoles: %v", err)
	}
	third, _ := auth.Authenticate(context.Background(), token).Principal()
	if !third.HasRole(domain.RoleAdmin) {
		t.Fatalf("expected role change to apply on next request, got %v", third.Roles)
	}
	if repo.finds != 3 {
		t.Fatalf("expected a store read per pass, got %d", repo.finds)
	}
}

func TestAuthenticator_ConcurrentRequestsAreIsolated(t *testing.T) {
	tokens, repo, _, auth := newAuthenticatorFixture(t)
	repo.put(&domain.User{ID: "3", Username: "bob", Enabled: true, Roles: []string{domain.RoleSeller}})
	aliceToken, _, _ := tokens.Issue("alice")
	bobToken, _, _ := tokens.Issue("bob")

	var wg sync.WaitGroup
	errs := make(chan string, 200)
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if p, ok := auth.Authenticate(context.Background(), aliceToken).Principal(); !ok || p.Username != "alice" {
				errs <- "alice pass returned " + p.Username
			}
		}()
		go func() {
			defer wg.Done()
			if p, ok := auth.Authenticate(context.Background(), bobToken).Principal(); !ok || p.Username != "bob" {
				errs <- "bob pass returned " + p.Username
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
