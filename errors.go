package authcore

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure classes an Engine operation can report.
type Kind int

const (
	KindNone Kind = iota
	// KindInvalidCredentials covers a wrong or missing identity/secret pair.
	KindInvalidCredentials
	// KindUnauthenticated covers a token that is missing, expired, revoked or unknown.
	KindUnauthenticated
	// KindStoreUnavailable is the only retryable kind.
	KindStoreUnavailable
	// KindMalformed covers a token whose structure or signature cannot be verified at all.
	KindMalformed
	// KindInvalidRequest covers boundary input that fails decoding or validation.
	KindInvalidRequest
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindMalformed:
		return "malformed"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "internal"
	}
}

// Retryable reports whether a caller may repeat the request unchanged.
func (k Kind) Retryable() bool {
	return k == KindStoreUnavailable
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrStoreUnavailable   = errors.New("session store unavailable")
	ErrMalformed          = errors.New("malformed token")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternal           = errors.New("internal error")
	// ErrEngineNotReady is returned by a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// KindOf classifies err. Errors not produced by this package classify as KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}

// failure tags cause with the sentinel for kind while keeping cause reachable through
// errors.Is for diagnostics.
func failure(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
