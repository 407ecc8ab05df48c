package domain

import (
	"errors"
	"fmt"
)

// Token failures. Every kind wraps ErrTokenInvalid so callers that only care
// about valid/invalid can test for that single sentinel.
var (
	ErrTokenInvalid          = errors.New("invalid token")
	ErrTokenMalformed        = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenExpired          = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	ErrTokenUnsupported      = fmt.Errorf("%w: unsupported", ErrTokenInvalid)
	ErrTokenEmptyClaims      = fmt.Errorf("%w: empty claims", ErrTokenInvalid)
	ErrTokenRevoked          = fmt.Errorf("%w: revoked", ErrTokenInvalid)
)

// ErrTokenAbsent is the normal state of an anonymous request, not a failure.
var ErrTokenAbsent = errors.New("no token presented")

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", ErrUserExists)
	ErrEmailTaken         = fmt.Errorf("%w: email already in use", ErrUserExists)
	ErrInvalidCredentials = errors.New("bad credentials")
	ErrInvalidRole        = errors.New("invalid role")

	ErrPrincipalNotFound = errors.New("principal not found")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrPolicyDenied      = errors.New("access denied by policy")
)
