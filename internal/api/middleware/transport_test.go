package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenExtractor_Extract(t *testing.T) {
	x := NewTokenExtractor("sbecom")

	cases := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "nothing", want: ""},
		{name: "cookie only", cookie: "cookie-token", want: "cookie-token"},
		{name: "header only", header: "Bearer header-token", want: "header-token"},
		{name: "cookie wins over header", cookie: "cookie-token", header: "Bearer header-token", want: "cookie-token"},
		{name: "empty cookie falls back to header", cookie: "", header: "Bearer header-token", want: "header-token"},
		{name: "scheme is case insensitive", header: "bearer abc", want: "abc"},
		{name: "non bearer scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "bearer without token", header: "Bearer", want: ""},
		{name: "extra whitespace", header: "Bearer   abc  ", want: "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tc.cookie != "" || tc.name == "empty cookie falls back to header" {
				req.AddCookie(&http.Cookie{Name: "sbecom", Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if got := x.Extract(req); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTokenExtractor_IgnoresOtherCookies(t *testing.T) {
	x := NewTokenExtractor("sbecom")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "nope"})
	if got := x.Extract(req); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}
}
