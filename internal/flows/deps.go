package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The Engine builds this once at construction.
type Deps struct {
	Login         LoginDeps
	Refresh       RefreshDeps
	Logout        LogoutDeps
	Validate      ValidateDeps
	Introspection IntrospectionDeps
}

// StoreScope derives the context a single store call runs under.
type StoreScope func(context.Context) (context.Context, context.CancelFunc)

// Timeout returns a StoreScope bounded by d. A non-positive d leaves ctx unbounded.
func Timeout(d time.Duration) StoreScope {
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		if d <= 0 {
			return context.WithCancel(ctx)
		}
		return context.WithTimeout(ctx, d)
	}
}

// MintFunc signs an access token bound to a session.
type MintFunc func(uid, sid, name string, now time.Time) (string, time.Time, error)
