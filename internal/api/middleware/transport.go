package middleware

import (
	"net/http"
	"strings"
)

const bearerScheme = "bearer"

// TokenExtractor finds the candidate credential on a request: the named
// cookie first, then an "Authorization: Bearer <token>" header. It never
// validates what it finds.
type TokenExtractor struct {
	CookieName string
}

func NewTokenExtractor(cookieName string) TokenExtractor {
	return TokenExtractor{CookieName: cookieName}
}

// Extract returns the raw token, or "" when the request carries none.
// An empty cookie counts as absent and falls through to the header.
func (x TokenExtractor) Extract(r *http.Request) string {
	if x.CookieName != "" {
		if ck, err := r.Cookie(x.CookieName); err == nil {
			if v := strings.TrimSpace(ck.Value); v != "" {
				return v
			}
		}
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
