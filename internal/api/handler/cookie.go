package handler

import (
	"net/http"
	"time"
)

// CookieConfig describes the cookie carrying the credential token.
// HTTPOnly defaults to false to keep the token readable by the storefront
// client; deployments can turn it on.
type CookieConfig struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	HTTPOnly bool
	Secure   bool
}

func (cfg CookieConfig) tokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cfg.path(),
		MaxAge:   int(cfg.MaxAge / time.Second),
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// cleanCookie expires the token cookie immediately (Max-Age=0).
func (cfg CookieConfig) cleanCookie() *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.path(),
		MaxAge:   -1,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cfg CookieConfig) path() string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}
