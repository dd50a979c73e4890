package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authcore/authcore/session"
)

// RefreshFailureKind classifies refresh failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureDecode
	RefreshFailureInvalid
	RefreshFailureStore
	RefreshFailureIssueAccess
)

// RefreshResult carries the new access token or the failure.
type RefreshResult struct {
	Failure         RefreshFailureKind
	Err             error
	SessionID       string
	UserID          string
	DisplayName     string
	AccessToken     string
	AccessExpiresAt time.Time
}

type RefreshSessionStore interface {
	ValidateSession(ctx context.Context, token string, now time.Time) (*session.Record, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	SessionStore RefreshSessionStore
	MintAccess   MintFunc
	Now          func() time.Time
	StoreScope   StoreScope
}

// RunRefresh checks the session live and mints a new access token for it. The session
// record and the refresh token are left untouched, so concurrent refreshes need no
// coordination.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing, Err: session.ErrSessionNotFound}
	}

	now := deps.Now()

	storeCtx, cancel := deps.StoreScope(ctx)
	rec, err := deps.SessionStore.ValidateSession(storeCtx, refreshToken, now)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenMalformed):
			return RefreshResult{Failure: RefreshFailureDecode, Err: err}
		case errors.Is(err, session.ErrSessionInvalid):
			sid, _ := session.SessionIDFromToken(refreshToken)
			return RefreshResult{Failure: RefreshFailureInvalid, Err: err, SessionID: sid}
		default:
			sid, _ := session.SessionIDFromToken(refreshToken)
			return RefreshResult{Failure: RefreshFailureStore, Err: err, SessionID: sid}
		}
	}

	access, exp, err := deps.MintAccess(rec.UserID, rec.SessionID, rec.DisplayName, now)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, SessionID: rec.SessionID, UserID: rec.UserID}
	}

	return RefreshResult{
		SessionID:       rec.SessionID,
		UserID:          rec.UserID,
		DisplayName:     rec.DisplayName,
		AccessToken:     access,
		AccessExpiresAt: exp,
	}
}
