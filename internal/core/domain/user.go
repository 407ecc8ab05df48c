package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	RoleUser   = "USER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

var knownRoles = []string{RoleUser, RoleSeller, RoleAdmin}

// User models an account as persisted by the user store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Enabled      bool      `json:"enabled"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the identity attached to a single authenticated request.
// It is built from a fresh store read and never shared between requests.
type Principal struct {
	ID           string
	Username     string
	PasswordHash string
	Enabled      bool
	Roles        []string
}

// NewPrincipal snapshots u into a Principal. The role slice is copied so later
// mutations of u do not leak into an in-flight request.
func NewPrincipal(u *User) Principal {
	return Principal{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Enabled:      u.Enabled,
		Roles:        NormalizeRoles(u.Roles),
	}
}

// HasRole reports whether the principal carries role. Roles are flat tags;
// ADMIN does not imply SELLER or USER.
func (p Principal) HasRole(role string) bool {
	role = normalizeRole(role)
	if role == "" {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// IsKnownRole reports whether role is one of the roles the service grants.
func IsKnownRole(role string) bool {
	return slices.Contains(knownRoles, normalizeRole(role))
}

// NormalizeRoles upper-cases, trims, de-duplicates and sorts roles.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = normalizeRole(r)
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// ResolveSignupRoles maps the role names a registering client asks for onto
// granted roles: "admin" and "seller" map to their roles, anything else to
// USER. An empty request yields USER only.
func ResolveSignupRoles(requested []string) []string {
	if len(requested) == 0 {
		return []string{RoleUser}
	}
	granted := make([]string, 0, len(requested))
	for _, r := range requested {
		switch strings.ToLower(strings.TrimSpace(r)) {
		case "admin":
			granted = append(granted, RoleAdmin)
		case "seller":
			granted = append(granted, RoleSeller)
		default:
			granted = append(granted, RoleUser)
		}
	}
	return NormalizeRoles(granted)
}

func normalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, "ROLE_")
}
