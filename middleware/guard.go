package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/jwt"
)

// Authenticator is satisfied by *authcore.Engine.
type Authenticator interface {
	AuthenticateClaims(ctx context.Context, accessToken string) (*jwt.AccessClaims, error)
}

// AuthResult is what a guard stores in the request context.
type AuthResult struct {
	Identity  authcore.Identity
	SessionID string
	ExpiresAt time.Time
}

type authResultContextKey struct{}

// AuthResultFromContext returns the result stored by a guard.
func AuthResultFromContext(ctx context.Context) (*AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*AuthResult)
	return res, ok
}

// WithAuthResult stores res in ctx. Guards call it; tests can too.
func WithAuthResult(ctx context.Context, res *AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Guard rejects requests without a valid access token with 401.
func Guard(auth Authenticator, cookies authcore.CookieConfig) func(http.Handler) http.Handler {
	return GuardWithErrorHandler(auth, cookies, PlainErrorHandler)
}

// GuardWithErrorHandler is Guard with rejections written by onError.
func GuardWithErrorHandler(auth Authenticator, cookies authcore.CookieConfig, onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = PlainErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				onError(w, r, rejection(nil))
				return
			}

			token, ok := AccessToken(r, cookies)
			if !ok {
				onError(w, r, rejection(nil))
				return
			}

			claims, err := auth.AuthenticateClaims(r.Context(), token)
			if err != nil {
				onError(w, r, rejection(err))
				return
			}

			res := &AuthResult{
				Identity:  authcore.Identity{UserID: claims.UID, DisplayName: claims.Name},
				SessionID: claims.SID,
			}
			if claims.ExpiresAt != nil {
				res.ExpiresAt = claims.ExpiresAt.Time
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// AccessToken reads the access token from its cookie, or from an Authorization bearer
// header when the cookie is absent.
func AccessToken(r *http.Request, cookies authcore.CookieConfig) (string, bool) {
	if c, err := r.Cookie(cookies.AccessName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

// RefreshToken reads the refresh token cookie.
func RefreshToken(r *http.Request, cookies authcore.CookieConfig) (string, bool) {
	c, err := r.Cookie(cookies.RefreshName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
