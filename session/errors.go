package session

import (
	"errors"
	"fmt"
)

// ErrSessionInvalid is the umbrella for every reason a refresh token is rejected.
var ErrSessionInvalid = errors.New("refresh session invalid")

var (
	// ErrSessionNotFound is returned for unknown session ids and for secret mismatches.
	ErrSessionNotFound = fmt.Errorf("%w: not found", ErrSessionInvalid)
	// ErrSessionRevoked is returned once a session has been revoked.
	ErrSessionRevoked = fmt.Errorf("%w: revoked", ErrSessionInvalid)
	// ErrSessionExpired is returned once now reaches the session's expiry.
	ErrSessionExpired = fmt.Errorf("%w: expired", ErrSessionInvalid)
	// ErrTokenMalformed is returned when the refresh token cannot be decoded.
	ErrTokenMalformed = fmt.Errorf("%w: malformed token", ErrSessionInvalid)
)

// ErrStoreUnavailable wraps every backend transport failure and deadline.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrRecordCorrupt is returned when a stored blob cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

// ErrSessionExists is returned by a backend when an insert collides with an existing id.
var ErrSessionExists = errors.New("session already exists")
