package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authcore/authcore/jwt"
	"github.com/authcore/authcore/session"
)

// LogoutFailureKind classifies logout failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureAccess
	LogoutFailureRefreshDecode
	LogoutFailureSessionMismatch
	LogoutFailureUnbound
	LogoutFailureStore
)

// LogoutResult reports what was revoked. AlreadyGone is set when the session no longer
// existed, which still counts as a successful logout.
type LogoutResult struct {
	Failure     LogoutFailureKind
	Err         error
	UserID      string
	SessionID   string
	AlreadyGone bool
}

type LogoutSessionStore interface {
	RevokeSession(ctx context.Context, sessionID string, now time.Time) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	VerifyAccess func(token string, now time.Time) (*jwt.AccessClaims, error)
	SessionStore LogoutSessionStore
	Now          func() time.Time
	StoreScope   StoreScope
}

// RunLogout authorises with the access token first and only then revokes. The refresh
// token, when present, must name the same session the access token is bound to.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps LogoutDeps) LogoutResult {
	now := deps.Now()

	if accessToken == "" {
		return LogoutResult{Failure: LogoutFailureAccess, Err: jwt.ErrTokenMalformed}
	}
	claims, err := deps.VerifyAccess(accessToken, now)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureAccess, Err: err}
	}

	sessionID := claims.SID
	if refreshToken != "" {
		sid, err := session.SessionIDFromToken(refreshToken)
		if err != nil {
			return LogoutResult{Failure: LogoutFailureRefreshDecode, Err: err, UserID: claims.UID}
		}
		if sid != claims.SID {
			return LogoutResult{Failure: LogoutFailureSessionMismatch, Err: session.ErrSessionNotFound, UserID: claims.UID, SessionID: sid}
		}
	}
	if sessionID == "" {
		return LogoutResult{Failure: LogoutFailureUnbound, Err: session.ErrSessionNotFound, UserID: claims.UID}
	}

	storeCtx, cancel := deps.StoreScope(ctx)
	err = deps.SessionStore.RevokeSession(storeCtx, sessionID, now)
	cancel()
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return LogoutResult{UserID: claims.UID, SessionID: sessionID, AlreadyGone: true}
	case err != nil:
		return LogoutResult{Failure: LogoutFailureStore, Err: err, UserID: claims.UID, SessionID: sessionID}
	}

	return LogoutResult{UserID: claims.UID, SessionID: sessionID}
}
