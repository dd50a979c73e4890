package credential

import "errors"

var (
	// ErrInvalidCredentials is the only rejection callers should act on.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is joined with ErrInvalidCredentials for empty input.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUserNotFound is returned by a Directory for unknown or disabled names.
	ErrUserNotFound = errors.New("user not found")
	// ErrDirectoryUnavailable wraps directory transport failures.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
)
