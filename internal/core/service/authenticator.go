package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

type authenticator struct {
	tokens ports.TokenCodec
	loader ports.PrincipalLoader
	log    zerolog.Logger
}

// NewAuthenticator wires the validate-then-load pipeline run for every
// request that is not public.
func NewAuthenticator(tokens ports.TokenCodec, loader ports.PrincipalLoader, log zerolog.Logger) ports.Authenticator {
	return &authenticator{tokens: tokens, loader: loader, log: log}
}

// Authenticate validates rawToken and loads its subject. It always returns;
// failures, cancellation and panics become an unauthenticated result.
func (a *authenticator) Authenticate(ctx context.Context, rawToken string) (result domain.Authentication) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("authentication pass panicked")
			result = domain.Unauthenticated(fmt.Errorf("authentication panic: %v", r))
		}
	}()

	if rawToken == "" {
		return domain.Unauthenticated(domain.ErrTokenAbsent)
	}

	claims, err := a.tokens.Validate(ctx, rawToken)
	if err != nil {
		a.logFailure(err, "")
		return domain.Unauthenticated(err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Unauthenticated(err)
	}

	principal, err := a.loader.Load(ctx, claims.Subject)
	if err != nil {
		a.logFailure(err, claims.Subject)
		return domain.Unauthenticated(err)
	}
	if !principal.Enabled {
		a.logFailure(domain.ErrAccountDisabled, claims.Subject)
		return domain.Unauthenticated(domain.ErrAccountDisabled)
	}
	if err := ctx.Err(); err != nil {
		return domain.Unauthenticated(err)
	}

	return domain.Authenticated(principal)
}

func (a *authenticator) logFailure(err error, subject string) {
	ev := a.log.Debug()
	if !errors.Is(err, domain.ErrTokenInvalid) &&
		!errors.Is(err, domain.ErrPrincipalNotFound) &&
		!errors.Is(err, domain.ErrAccountDisabled) {
		ev = a.log.Warn().Err(err)
	}
	ev = ev.Str("reason", domain.FailureReason(err))
	if subject != "" {
		ev = ev.Str("subject", subject)
	}
	ev.Msg("request not authenticated")
}
