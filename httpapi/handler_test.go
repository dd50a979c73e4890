package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/clock"
	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/session"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "cooluser1"
	testPIN  = "4821"
)

type testServer struct {
	handler http.Handler
	clock   *clock.Fake
	engine  *authcore.Engine
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	cfg := authcore.DefaultConfig()
	cfg.JWT.AccessTTL = 5 * time.Second
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Session.TTL = time.Hour
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	hasher, err := authcore.NewPINHasher(cfg)
	require.NoError(t, err)
	dir := credential.NewMemoryDirectory()
	_, err = dir.Add(testUser, testPIN, hasher)
	require.NoError(t, err)

	fake := clock.NewFake(time.Unix(1_700_000_000, 0))
	engine, err := authcore.New().
		WithConfig(cfg).
		WithClock(fake).
		WithDirectory(dir).
		WithSessionBackend(session.NewMemoryBackend()).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	h := NewRouter(engine, Options{Cookies: cfg.Cookie, Clock: fake, Metrics: metrics})
	return testServer{handler: h, clock: fake, engine: engine}
}

func (s testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s testServer) login(t *testing.T) (access, refresh *http.Cookie) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", loginBody(testUser, testPIN))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access = cookieNamed(rec, "accessToken")
	refresh = cookieNamed(rec, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

func loginBody(name, pin string) string {
	return fmt.Sprintf(`{"name":%q,"pin":%q}`, name, pin)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginSetsBothCookies(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/login", loginBody(testUser, testPIN))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Login successful", decodeBody[MessageResponse](t, rec).Message)

	access := cookieNamed(rec, "accessToken")
	refresh := cookieNamed(rec, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	for _, c := range []*http.Cookie{access, refresh} {
		require.True(t, c.HttpOnly, c.Name)
		require.True(t, c.Secure, c.Name)
		require.Equal(t, "/", c.Path, c.Name)
		require.Equal(t, http.SameSiteStrictMode, c.SameSite, c.Name)
	}
	require.Equal(t, 5, access.MaxAge)
	require.Equal(t, 3600, refresh.MaxAge)
}

func TestLoginFailureSetsNoCookies(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
		code string
	}{
		{"wrong pin", loginBody(testUser, "0000"), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unknown user", loginBody("nobody", testPIN), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"empty fields", loginBody("", ""), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"bad json", `{"name":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"trailing data", loginBody(testUser, testPIN) + `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"name too long", loginBody(strings.Repeat("a", 256), testPIN), http.StatusBadRequest, "INVALID_REQUEST"},
		{"body too large", loginBody(testUser, strings.Repeat("9", 8<<10)), http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/login", tc.body)
			require.Equal(t, tc.want, rec.Code)
			require.Empty(t, rec.Result().Cookies())
			require.Equal(t, tc.code, decodeBody[APIError](t, rec).Code)
		})
	}
}

func TestLoginValidationDetails(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/login", loginBody(strings.Repeat("a", 256), testPIN))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Details []FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Details, 1)
	require.Equal(t, "name", body.Details[0].Field)
	require.Equal(t, "max", body.Details[0].Tag)
}

func TestAccessExpiryThenRefresh(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.login(t)

	rec := s.do(t, http.MethodGet, "/users/me", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[MeResponse](t, rec)
	require.Equal(t, testUser, me.Name)
	require.NotEmpty(t, me.ID)

	s.clock.Advance(8 * time.Second)
	rec = s.do(t, http.MethodGet, "/users/me", "", access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[RefreshResponse](t, rec)
	fresh := cookieNamed(rec, "accessToken")
	require.NotNil(t, fresh)
	require.Equal(t, fresh.Value, body.AccessToken)
	require.Nil(t, cookieNamed(rec, "refreshToken"), "refresh cookie must not be re-sent")

	rec = s.do(t, http.MethodGet, "/users/me", "", fresh)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, me.ID, decodeBody[MeResponse](t, rec).ID)
}

func TestMeRejectionsUseErrorBody(t *testing.T) {
	s := newTestServer(t)
	access, _ := s.login(t)
	s.clock.Advance(8 * time.Second)

	cases := map[string][]*http.Cookie{
		"no token":      nil,
		"expired token": {access},
	}
	for name, cookies := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/users/me", "", cookies...)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeBody[APIError](t, rec)
			require.Equal(t, "UNAUTHENTICATED", body.Code)
			require.Equal(t, "Authentication required", body.Message)
		})
	}

	rec := s.do(t, http.MethodGet, "/users/me", "", &http.Cookie{Name: "accessToken", Value: "a.b.c"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "MALFORMED", decodeBody[APIError](t, rec).Code)
}

func TestRefreshRejections(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Result().Cookies())

	rec = s.do(t, http.MethodPost, "/auth/refresh", "", &http.Cookie{Name: "refreshToken", Value: "invalid_token_12345"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Result().Cookies())
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.login(t)

	rec := s.do(t, http.MethodPost, "/auth/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Logout successful", decodeBody[MessageResponse](t, rec).Message)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieNamed(rec, name)
		require.NotNil(t, c, name)
		require.Negative(t, c.MaxAge, name)
		require.Empty(t, c.Value, name)
	}

	// The client restores the cleared cookie by hand.
	rec = s.do(t, http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutAccessTokenKeepsSession(t *testing.T) {
	s := newTestServer(t)
	_, refresh := s.login(t)

	rec := s.do(t, http.MethodPost, "/auth/logout", "", refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Result().Cookies())

	rec = s.do(t, http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeBody[authcore.HealthStatus](t, rec).Available)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "metrics", rec.Body.String())
}

type downEngine struct{}

func (downEngine) Login(context.Context, string, string) (*authcore.LoginResult, error) {
	return nil, fmt.Errorf("%w: dial tcp: connection refused", authcore.ErrStoreUnavailable)
}

func (downEngine) Refresh(context.Context, string) (*authcore.RefreshResult, error) {
	return nil, fmt.Errorf("%w: i/o timeout", authcore.ErrStoreUnavailable)
}

func (downEngine) Logout(context.Context, string, string) error {
	return fmt.Errorf("%w: i/o timeout", authcore.ErrStoreUnavailable)
}

func (downEngine) AuthenticateClaims(context.Context, string) (*jwt.AccessClaims, error) {
	return nil, authcore.ErrUnauthenticated
}

func (downEngine) Health(context.Context) authcore.HealthStatus {
	return authcore.HealthStatus{Error: "connection refused"}
}

func TestStoreUnavailableIsRetryable(t *testing.T) {
	h := NewRouter(downEngine{}, Options{})

	for _, path := range []string{"/auth/login", "/auth/refresh", "/auth/logout"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(loginBody(testUser, testPIN)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		require.Equal(t, "1", rec.Header().Get("Retry-After"), path)
		require.Empty(t, rec.Result().Cookies(), path)
		require.NotContains(t, rec.Body.String(), "i/o timeout", path)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := map[authcore.Kind]int{
		authcore.KindNone:               http.StatusOK,
		authcore.KindInvalidCredentials: http.StatusUnauthorized,
		authcore.KindUnauthenticated:    http.StatusUnauthorized,
		authcore.KindMalformed:          http.StatusUnauthorized,
		authcore.KindStoreUnavailable:   http.StatusServiceUnavailable,
		authcore.KindInvalidRequest:     http.StatusBadRequest,
		authcore.KindInternal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		require.Equal(t, want, StatusFor(kind), kind.String())
	}
}
