package domain

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strings"
)

// AccessClass is the authorization tier a request path belongs to.
type AccessClass int

const (
	AccessAuthenticated AccessClass = iota
	AccessPublic
	AccessRole
)

func (c AccessClass) String() string {
	switch c {
	case AccessPublic:
		return "public"
	case AccessRole:
		return "role"
	default:
		return "authenticated"
	}
}

// Access is an access class plus, for AccessRole, the role required.
type Access struct {
	Class AccessClass
	Role  string
}

func PublicAccess() Access        { return Access{Class: AccessPublic} }
func AuthenticatedAccess() Access { return Access{Class: AccessAuthenticated} }
func RoleAccess(role string) Access {
	return Access{Class: AccessRole, Role: normalizeRole(role)}
}

func (a Access) String() string {
	if a.Class == AccessRole {
		return "role(" + a.Role + ")"
	}
	return a.Class.String()
}

// Rule binds a path pattern, optionally limited to some HTTP methods, to an
// access class.
//
// Patterns are matched segment by segment: a literal segment must match
// exactly, "*" (or any path.Match expression) matches within one segment, and
// a trailing "/**" matches the prefix and everything below it.
type Rule struct {
	Pattern string
	Methods []string
	Access  Access
}

// Decision is the result of evaluating an Access against an Authentication.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionUnauthenticated
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "allow"
	}
}

var errBadPattern = errors.New("invalid path pattern")

// Policy is an ordered rule table; the first matching rule wins and
// unmatched requests require authentication. It is built once at startup and
// read concurrently afterwards.
type Policy struct {
	rules []Rule
}

// NewPolicy validates rules and freezes them into a Policy.
func NewPolicy(rules ...Rule) (*Policy, error) {
	frozen := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if err := validatePattern(r.Pattern); err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, r.Pattern, err)
		}
		if r.Access.Class == AccessRole && normalizeRole(r.Access.Role) == "" {
			return nil, fmt.Errorf("rule %d (%q): role access without a role", i, r.Pattern)
		}
		methods := make([]string, 0, len(r.Methods))
		for _, m := range r.Methods {
			methods = append(methods, strings.ToUpper(strings.TrimSpace(m)))
		}
		frozen = append(frozen, Rule{
			Pattern: r.Pattern,
			Methods: methods,
			Access:  Access{Class: r.Access.Class, Role: normalizeRole(r.Access.Role)},
		})
	}
	return &Policy{rules: frozen}, nil
}

// Rules returns a copy of the rule table.
func (p *Policy) Rules() []Rule {
	return slices.Clone(p.rules)
}

// Classify returns the access class for a request. CORS preflight requests
// are always public.
func (p *Policy) Classify(method, requestPath string) Access {
	if method == http.MethodOptions {
		return PublicAccess()
	}
	clean := path.Clean("/" + requestPath)
	for _, r := range p.rules {
		if r.matches(method, clean) {
			return r.Access
		}
	}
	return AuthenticatedAccess()
}

func (r Rule) matches(method, requestPath string) bool {
	if len(r.Methods) > 0 && !slices.Contains(r.Methods, strings.ToUpper(method)) {
		return false
	}
	return MatchPattern(r.Pattern, requestPath)
}

// Evaluate decides whether auth satisfies access.
func Evaluate(access Access, auth Authentication) Decision {
	if access.Class == AccessPublic {
		return DecisionAllow
	}
	principal, ok := auth.Principal()
	if !ok {
		return DecisionUnauthenticated
	}
	if access.Class == AccessRole && !principal.HasRole(access.Role) {
		return DecisionForbidden
	}
	return DecisionAllow
}

// MatchPattern reports whether requestPath matches pattern.
func MatchPattern(pattern, requestPath string) bool {
	target := segments(requestPath)
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		prefix := segments(base)
		if len(target) < len(prefix) {
			return false
		}
		return matchSegments(prefix, target[:len(prefix)])
	}
	return matchSegments(segments(pattern), target)
}

func matchSegments(pattern, target []string) bool {
	if len(pattern) != len(target) {
		return false
	}
	for i := range pattern {
		ok, err := path.Match(pattern[i], target[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func validatePattern(pattern string) error {
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("%w: must start with /", errBadPattern)
	}
	base := strings.TrimSuffix(pattern, "/**")
	for _, seg := range segments(base) {
		if seg == "**" {
			return fmt.Errorf("%w: ** is only allowed as the last segment", errBadPattern)
		}
		if _, err := path.Match(seg, ""); err != nil {
			return fmt.Errorf("%w: %v", errBadPattern, err)
		}
	}
	return nil
}

// DefaultRules is the storefront access table. extraPublic patterns are
// appended to the public block, ahead of the role-gated areas.
func DefaultRules(extraPublic ...string) []Rule {
	rules := []Rule{
		{Pattern: "/api/auth/username", Access: AuthenticatedAccess()},
		{Pattern: "/api/auth/user", Access: AuthenticatedAccess()},
		{Pattern: "/api/auth/**", Access: PublicAccess()},
		{Pattern: "/api/public/**", Access: PublicAccess()},
		{Pattern: "/api/test/**", Access: PublicAccess()},
		{Pattern: "/v3/api-docs/**", Access: PublicAccess()},
		{Pattern: "/swagger-ui/**", Access: PublicAccess()},
		{Pattern: "/images/**", Access: PublicAccess()},
		{Pattern: "/health", Access: PublicAccess()},
		{Pattern: "/health/ready", Access: PublicAccess()},
		{Pattern: "/metrics", Access: PublicAccess()},
	}
	for _, p := range extraPublic {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		rules = append(rules, Rule{Pattern: p, Access: PublicAccess()})
	}
	return append(rules,
		Rule{Pattern: "/api/admin/**", Access: RoleAccess(RoleAdmin)},
		Rule{Pattern: "/api/seller/**", Access: RoleAccess(RoleSeller)},
	)
}
