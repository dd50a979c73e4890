package session

import (
	"context"
	"time"
)

// Backend is the persistence contract a Store drives. Implementations must make Revoke
// atomic: either the record flips to revoked with the given time, or nothing changes.
type Backend interface {
	// Insert persists a new record. A colliding id yields ErrSessionExists.
	Insert(ctx context.Context, rec *Record) error
	// Get returns the record or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*Record, error)
	// Revoke marks the record revoked at the given time unless it already is. It reports
	// whether this call performed the transition, and ErrSessionNotFound for unknown ids.
	Revoke(ctx context.Context, sessionID string, at time.Time) (bool, error)
	// DeleteExpired removes records whose ExpiresAt is before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
	// Ping checks reachability.
	Ping(ctx context.Context) error
}
