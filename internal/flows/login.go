package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authcore/authcore/credential"
	"github.com/authcore/authcore/session"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureCredentials
	LoginFailureDirectory
	LoginFailureCreateSession
	LoginFailureIssueAccess
)

// LoginResult carries both tokens or the failure. On failure no token field is set.
type LoginResult struct {
	Failure         LoginFailureKind
	Err             error
	Identity        credential.Identity
	Session         session.Issued
	AccessToken     string
	AccessExpiresAt time.Time

	// OrphanSessionID names the session persisted before minting failed. OrphanRevoked
	// reports whether it was revoked again; RevokeErr holds the failure when it was not.
	OrphanSessionID string
	OrphanRevoked   bool
	RevokeErr       error
}

type LoginSessionStore interface {
	CreateSession(ctx context.Context, userID, displayName string, now time.Time, ttl time.Duration) (session.Issued, error)
	RevokeSession(ctx context.Context, sessionID string, now time.Time) error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Verifier     credential.Verifier
	SessionStore LoginSessionStore
	MintAccess   MintFunc
	Now          func() time.Time
	SessionTTL   time.Duration
	StoreScope   StoreScope
	Warn         func(string, ...any)
}

// RunLogin verifies credentials, persists a session, then mints the access token.
// If minting fails the fresh session is revoked so a failed login leaves nothing usable.
func RunLogin(ctx context.Context, name, secret string, deps LoginDeps) LoginResult {
	identity, err := deps.Verifier.Verify(ctx, name, secret)
	if err != nil {
		failure := LoginFailureDirectory
		if errors.Is(err, credential.ErrInvalidCredentials) {
			failure = LoginFailureCredentials
		}
		return LoginResult{Failure: failure, Err: err}
	}

	now := deps.Now()

	storeCtx, cancel := deps.StoreScope(ctx)
	issued, err := deps.SessionStore.CreateSession(storeCtx, identity.UserID, identity.DisplayName, now, deps.SessionTTL)
	cancel()
	if err != nil {
		return LoginResult{Failure: LoginFailureCreateSession, Err: err, Identity: identity}
	}

	access, exp, err := deps.MintAccess(identity.UserID, issued.SessionID, identity.DisplayName, now)
	if err != nil {
		revokeCtx, cancel := deps.StoreScope(context.WithoutCancel(ctx))
		revokeErr := deps.SessionStore.RevokeSession(revokeCtx, issued.SessionID, now)
		cancel()
		if revokeErr != nil && deps.Warn != nil {
			deps.Warn("authcore: revoking orphaned session failed", "session_id", issued.SessionID, "error", revokeErr)
		}
		return LoginResult{
			Failure:         LoginFailureIssueAccess,
			Err:             err,
			Identity:        identity,
			OrphanSessionID: issued.SessionID,
			OrphanRevoked:   revokeErr == nil,
			RevokeErr:       revokeErr,
		}
	}

	return LoginResult{
		Identity:        identity,
		Session:         issued,
		AccessToken:     access,
		AccessExpiresAt: exp,
	}
}
