package middleware

import (
	"net/http"
	"time"

	"github.com/authcore/authcore"
)

// SetLoginCookies writes both credentials. Each cookie lives exactly as long as the
// token it carries.
func SetLoginCookies(w http.ResponseWriter, cfg authcore.CookieConfig, res *authcore.LoginResult, now time.Time) {
	http.SetCookie(w, newCookie(cfg, cfg.AccessName, res.AccessToken, res.AccessExpiresAt, now))
	http.SetCookie(w, newCookie(cfg, cfg.RefreshName, res.RefreshToken, res.RefreshExpiresAt, now))
}

// SetAccessCookie writes a refreshed access token. The refresh cookie is left alone.
func SetAccessCookie(w http.ResponseWriter, cfg authcore.CookieConfig, res *authcore.RefreshResult, now time.Time) {
	http.SetCookie(w, newCookie(cfg, cfg.AccessName, res.AccessToken, res.AccessExpiresAt, now))
}

// ClearCookies expires both credentials on the client.
func ClearCookies(w http.ResponseWriter, cfg authcore.CookieConfig) {
	for _, name := range []string{cfg.AccessName, cfg.RefreshName} {
		c := newCookie(cfg, name, "", time.Unix(0, 0), time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func newCookie(cfg authcore.CookieConfig, name, value string, expiresAt, now time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(now) / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
	}
}
