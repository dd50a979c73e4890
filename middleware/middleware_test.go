package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/jwt"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	claims *jwt.AccessClaims
	err    error
	got    string
}

func (s *stubAuth) AuthenticateClaims(_ context.Context, token string) (*jwt.AccessClaims, error) {
	s.got = token
	return s.claims, s.err
}

type stubSessions struct {
	info *authcore.SessionInfo
	err  error
}

func (s stubSessions) SessionInfo(context.Context, string) (*authcore.SessionInfo, error) {
	return s.info, s.err
}

var cookieCfg = authcore.DefaultConfig().Cookie

func okHandler(t *testing.T, want *AuthResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := AuthResultFromContext(r.Context())
		require.True(t, ok)
		if want != nil {
			require.Equal(t, *want, *res)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestGuardAcceptsCookie(t *testing.T) {
	exp := time.Unix(1_700_000_005, 0)
	auth := &stubAuth{claims: &jwt.AccessClaims{
		UID:              "u-1",
		SID:              "s-1",
		Name:             "cooluser1",
		RegisteredClaims: jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(exp)},
	}}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "tok"})
	rec := httptest.NewRecorder()

	want := &AuthResult{
		Identity:  authcore.Identity{UserID: "u-1", DisplayName: "cooluser1"},
		SessionID: "s-1",
		ExpiresAt: exp,
	}
	Guard(auth, cookieCfg)(okHandler(t, want)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "tok", auth.got)
}

func TestGuardBearerFallback(t *testing.T) {
	auth := &stubAuth{claims: &jwt.AccessClaims{UID: "u-1"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer hdr")
	rec := httptest.NewRecorder()

	Guard(auth, cookieCfg)(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "hdr", auth.got)
}

func TestGuardRejects(t *testing.T) {
	cases := map[string]func(*http.Request){
		"no token":     func(*http.Request) {},
		"empty bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"basic auth":   func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
		"bad token":    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "accessToken", Value: "x"}) },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			auth := &stubAuth{err: authcore.ErrUnauthenticated}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			setup(req)
			rec := httptest.NewRecorder()

			Guard(auth, cookieCfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler reached")
			})).ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGuardWithErrorHandler(t *testing.T) {
	cases := []struct {
		name     string
		auth     *stubAuth
		token    string
		wantKind authcore.Kind
	}{
		{"no token", &stubAuth{}, "", authcore.KindUnauthenticated},
		{"malformed", &stubAuth{err: authcore.ErrMalformed}, "x", authcore.KindMalformed},
		{"unclassified error", &stubAuth{err: errors.New("boom")}, "x", authcore.KindUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tc.token})
			}
			rec := httptest.NewRecorder()

			var got error
			onError := func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}
			GuardWithErrorHandler(tc.auth, cookieCfg, onError)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler reached")
			})).ServeHTTP(rec, req)

			require.Equal(t, http.StatusTeapot, rec.Code)
			require.Equal(t, tc.wantKind, authcore.KindOf(got))
		})
	}
}

func TestPlainErrorHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	PlainErrorHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil), authcore.ErrUnauthenticated)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = httptest.NewRecorder()
	PlainErrorHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil), authcore.ErrStoreUnavailable)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireActiveSession(t *testing.T) {
	cases := []struct {
		name     string
		sessions stubSessions
		want     int
	}{
		{"active", stubSessions{info: &authcore.SessionInfo{State: authcore.SessionActive}}, http.StatusNoContent},
		{"revoked", stubSessions{info: &authcore.SessionInfo{State: authcore.SessionRevoked}}, http.StatusUnauthorized},
		{"unknown", stubSessions{err: authcore.ErrUnauthenticated}, http.StatusUnauthorized},
		{"store down", stubSessions{err: errors.Join(authcore.ErrStoreUnavailable, context.DeadlineExceeded)}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithAuthResult(req.Context(), &AuthResult{SessionID: "s-1"}))
			rec := httptest.NewRecorder()

			RequireActiveSession(tc.sessions)(okHandler(t, nil)).ServeHTTP(rec, req)

			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestLoginCookiesCarryTokenLifetimes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rec := httptest.NewRecorder()
	SetLoginCookies(rec, cookieCfg, &authcore.LoginResult{
		AccessToken:      "at",
		AccessExpiresAt:  now.Add(5 * time.Minute),
		RefreshToken:     "rt",
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}, now)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, "/", c.Path)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	}
	require.Equal(t, "at", byName["accessToken"].Value)
	require.Equal(t, 300, byName["accessToken"].MaxAge)
	require.Equal(t, "rt", byName["refreshToken"].Value)
	require.Equal(t, 7*24*3600, byName["refreshToken"].MaxAge)
}

func TestClearCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookies(rec, cookieCfg)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		require.Empty(t, c.Value)
		require.Equal(t, -1, c.MaxAge)
	}
}
