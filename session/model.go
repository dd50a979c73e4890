package session

import "time"

// Record is the server-side state of one login. Refresh never mutates it; only revocation
// does, and only once.
type Record struct {
	SessionID   string
	UserID      string
	DisplayName string
	SecretHash  [32]byte
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Revoked     bool
	RevokedAt   time.Time
}

// Active reports whether the record can still back a refresh at now.
func (r *Record) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// Issued is returned by CreateSession. Token is the only place the plaintext secret exists.
type Issued struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}
