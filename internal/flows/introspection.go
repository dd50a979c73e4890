package flows

import (
	"context"
	"time"

	"github.com/authcore/authcore/session"
)

type IntrospectionSessionStore interface {
	Lookup(ctx context.Context, sessionID string) (*session.Record, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	Ping(ctx context.Context) error
}

// IntrospectionDeps captures admin and maintenance dependencies.
type IntrospectionDeps struct {
	SessionStore IntrospectionSessionStore
	Now          func() time.Time
	StoreScope   StoreScope
}

// RunLookup fetches one session record.
func RunLookup(ctx context.Context, sessionID string, deps IntrospectionDeps) (*session.Record, error) {
	storeCtx, cancel := deps.StoreScope(ctx)
	defer cancel()
	return deps.SessionStore.Lookup(storeCtx, sessionID)
}

// RunSweep deletes records past expiry plus retention. Sweeps scan the keyspace, so the
// store timeout is not applied; callers bound it through ctx.
func RunSweep(ctx context.Context, deps IntrospectionDeps) (int, error) {
	return deps.SessionStore.SweepExpired(ctx, deps.Now())
}

// RunPing measures store round-trip latency.
func RunPing(ctx context.Context, deps IntrospectionDeps) (time.Duration, error) {
	storeCtx, cancel := deps.StoreScope(ctx)
	defer cancel()
	start := time.Now()
	err := deps.SessionStore.Ping(storeCtx)
	return time.Since(start), err
}
