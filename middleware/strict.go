package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/authcore/authcore"
)

// SessionInspector is satisfied by *authcore.Engine.
type SessionInspector interface {
	SessionInfo(ctx context.Context, sessionID string) (*authcore.SessionInfo, error)
}

// RequireActiveSession must run after Guard. It looks the bound session up so a logout
// takes effect before the access token expires, at the cost of one store round trip per
// request. Store outages answer 503 rather than 401.
func RequireActiveSession(sessions SessionInspector) func(http.Handler) http.Handler {
	return RequireActiveSessionWithErrorHandler(sessions, PlainErrorHandler)
}

// RequireActiveSessionWithErrorHandler is RequireActiveSession with rejections written by
// onError.
func RequireActiveSessionWithErrorHandler(sessions SessionInspector, onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = PlainErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthResultFromContext(r.Context())
			if !ok || res.SessionID == "" || sessions == nil {
				onError(w, r, rejection(nil))
				return
			}

			info, err := sessions.SessionInfo(r.Context(), res.SessionID)
			if err != nil {
				if authcore.KindOf(err) == authcore.KindStoreUnavailable {
					onError(w, r, err)
					return
				}
				onError(w, r, rejection(err))
				return
			}
			if info.State != authcore.SessionActive {
				onError(w, r, fmt.Errorf("%w: session %s", authcore.ErrUnauthenticated, info.State))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
