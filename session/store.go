package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

// DefaultRevokedRetention is how long records outlive their expiry for audit purposes.
const DefaultRevokedRetention = 24 * time.Hour

// Store implements session creation, validation and revocation on top of a Backend.
// It holds no mutable state of its own; every decision reads the backend live.
type Store struct {
	backend   Backend
	retention time.Duration
}

// NewStore returns a Store over backend. A non-positive retention selects
// DefaultRevokedRetention.
func NewStore(backend Backend, retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRevokedRetention
	}
	return &Store{backend: backend, retention: retention}
}

// Retention returns how long records are kept after expiry.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// CreateSession persists a fresh record for userID and returns the refresh token that
// points at it. displayName is kept so refreshed access tokens carry the same name.
func (s *Store) CreateSession(ctx context.Context, userID, displayName string, now time.Time, ttl time.Duration) (Issued, error) {
	if userID == "" || len(userID) > 255 {
		return Issued{}, errors.New("invalid userID")
	}
	if len(displayName) > 255 {
		return Issued{}, errors.New("invalid display name")
	}
	if ttl <= 0 {
		return Issued{}, errors.New("invalid session ttl")
	}

	// ULID collisions need identical millisecond and 80 random bits; one retry is plenty.
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := newRefreshToken(now)
		if err != nil {
			return Issued{}, err
		}
		rec := &Record{
			SessionID:   tok.id.String(),
			UserID:      userID,
			DisplayName: displayName,
			SecretHash:  tok.hash(),
			IssuedAt:    now,
			ExpiresAt:   now.Add(ttl),
		}
		err = s.backend.Insert(ctx, rec)
		if errors.Is(err, ErrSessionExists) {
			continue
		}
		if err != nil {
			return Issued{}, err
		}
		return Issued{SessionID: rec.SessionID, Token: tok.String(), ExpiresAt: rec.ExpiresAt}, nil
	}
	return Issued{}, ErrSessionExists
}

// ValidateSession resolves a refresh token to its live record.
//
// A secret mismatch is reported as ErrSessionNotFound, and it is checked before the
// revoked and expired states so a caller without the secret learns nothing about them.
func (s *Store) ValidateSession(ctx context.Context, token string, now time.Time) (*Record, error) {
	tok, err := parseRefreshToken(token)
	if err != nil {
		return nil, err
	}

	rec, err := s.backend.Get(ctx, tok.id.String())
	if err != nil {
		return nil, err
	}

	presented := tok.hash()
	if subtle.ConstantTimeCompare(presented[:], rec.SecretHash[:]) != 1 {
		return nil, ErrSessionNotFound
	}
	if rec.Revoked {
		return nil, ErrSessionRevoked
	}
	if !now.Before(rec.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	return rec, nil
}

// RevokeSession marks the session revoked. Revoking an already revoked session succeeds
// and keeps the original RevokedAt.
func (s *Store) RevokeSession(ctx context.Context, sessionID string, now time.Time) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}
	_, err := s.backend.Revoke(ctx, sessionID, now)
	return err
}

// Lookup returns the stored record without any validity checks.
func (s *Store) Lookup(ctx context.Context, sessionID string) (*Record, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	return s.backend.Get(ctx, sessionID)
}

// SweepExpired deletes records whose expiry plus retention lies before now.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := s.backend.DeleteExpired(ctx, now.Add(-s.retention))
	if err != nil {
		return n, fmt.Errorf("sweep: %w", err)
	}
	return n, nil
}

// Ping reports backend reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// unavailable wraps transport failures. Context deadlines keep their identity so callers
// can still tell a timeout apart.
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
