package authcore

import (
	"time"

	"github.com/authcore/authcore/credential"
)

// Identity is the authenticated principal.
type Identity = credential.Identity

// LoginResult carries both credentials. The transport layer attaches both or neither.
type LoginResult struct {
	Identity         Identity
	SessionID        string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshResult carries the newly minted access token. The refresh token is unchanged
// and is not returned.
type RefreshResult struct {
	Identity        Identity
	SessionID       string
	AccessToken     string
	AccessExpiresAt time.Time
}

// SessionState is derived from a record at a given instant.
type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionRevoked SessionState = "revoked"
	SessionExpired SessionState = "expired"
)

// SessionInfo is the introspection view of a session record. It never includes the
// secret hash.
type SessionInfo struct {
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name,omitempty"`
	State       SessionState `json:"state"`
	IssuedAt    time.Time    `json:"issued_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
	RevokedAt   *time.Time   `json:"revoked_at,omitempty"`
}

// HealthStatus reports store reachability.
type HealthStatus struct {
	Available bool          `json:"available"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
}
