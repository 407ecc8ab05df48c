package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventSignin       AuthEventType = "signin"
	EventSigninFailed AuthEventType = "signin_failed"
	EventSignup       AuthEventType = "signup"
	EventSignout      AuthEventType = "signout"
	EventRolesChanged AuthEventType = "roles_changed"
)

// AuthEvent is an append-only record of an authentication-relevant action.
type AuthEvent struct {
	ID         string
	Type       AuthEventType
	Username   string
	Detail     string
	OccurredAt time.Time
}
