package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/authcore/authcore"
	"github.com/authcore/authcore/clock"
	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/middleware"
)

// Engine is the subset of *authcore.Engine the handlers call.
type Engine interface {
	Login(ctx context.Context, name, secret string) (*authcore.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*authcore.RefreshResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	AuthenticateClaims(ctx context.Context, accessToken string) (*jwt.AccessClaims, error)
	Health(ctx context.Context) authcore.HealthStatus
}

// LoginRequest is the login body. Empty fields are not a validation error: they reach
// the engine and fail like any other wrong PIN.
type LoginRequest struct {
	Name string `json:"name" validate:"max=255"`
	PIN  string `json:"pin" validate:"max=128"`
}

// MessageResponse is the body of the login and logout endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// RefreshResponse echoes the new access token for clients that cannot read cookies.
type RefreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

// MeResponse is the body of GET /users/me.
type MeResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SessionID string `json:"session_id"`
}

// Handler holds the endpoint implementations. Build it with NewHandler.
type Handler struct {
	engine       Engine
	cookies      authcore.CookieConfig
	clock        clock.Clock
	validator    *requestValidator
	maxBodyBytes int64
}

// NewHandler returns handlers over engine.
func NewHandler(engine Engine, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		engine:       engine,
		cookies:      opts.Cookies,
		clock:        opts.Clock,
		validator:    newRequestValidator(),
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.engine.Login(r.Context(), req.Name, req.PIN)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.SetLoginCookies(w, h.cookies, res, h.clock.Now())
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Login successful"})
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.RefreshToken(r, h.cookies)

	res, err := h.engine.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.SetAccessCookie(w, h.cookies, res, h.clock.Now())
	writeJSON(w, http.StatusOK, RefreshResponse{
		Message:     "Token refreshed successfully",
		AccessToken: res.AccessToken,
	})
}

// Logout handles POST /auth/logout. Cookies are only expired once the session is revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	access, _ := middleware.AccessToken(r, h.cookies)
	refresh, _ := middleware.RefreshToken(r, h.cookies)

	if err := h.engine.Logout(r.Context(), access, refresh); err != nil {
		writeError(w, r, err)
		return
	}

	middleware.ClearCookies(w, h.cookies)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Me handles GET /users/me. It must sit behind middleware.Guard.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, r, authcore.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		ID:        res.Identity.UserID,
		Name:      res.Identity.DisplayName,
		SessionID: res.SessionID,
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Health(r.Context())
	code := http.StatusOK
	if !status.Available {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", authcore.ErrInvalidRequest, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid request body format: %w", authcore.ErrInvalidRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after request body", authcore.ErrInvalidRequest)
	}

	return h.validator.Struct(dst)
}
