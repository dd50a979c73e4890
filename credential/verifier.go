package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// Identity is the stable user identifier plus the name shown to staff.
type Identity struct {
	UserID      string `json:"id"`
	DisplayName string `json:"name"`
}

// User is a directory entry. SecretHash is opaque to this package and only handed to
// the SecretHasher.
type User struct {
	ID         string
	Name       string
	SecretHash string
	Disabled   bool
}

// Verifier checks a name and secret.
type Verifier interface {
	Verify(ctx context.Context, name, secret string) (Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, name, secret string) (Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, name, secret string) (Identity, error) {
	return f(ctx, name, secret)
}

// Directory resolves a login name to a user record.
type Directory interface {
	LookupByName(ctx context.Context, name string) (User, error)
}

// SecretHasher is satisfied by *password.Argon2.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) (bool, error)
}

// DirectoryVerifier is the default Verifier.
type DirectoryVerifier struct {
	directory Directory
	hasher    SecretHasher
	dummyHash string
}

// NewDirectoryVerifier builds a verifier and precomputes the hash used for unknown names.
func NewDirectoryVerifier(directory Directory, hasher SecretHasher) (*DirectoryVerifier, error) {
	if directory == nil || hasher == nil {
		return nil, errors.New("credential: directory and hasher are required")
	}

	filler := make([]byte, 16)
	if _, err := rand.Read(filler); err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(base64.RawStdEncoding.EncodeToString(filler))
	if err != nil {
		return nil, fmt.Errorf("credential: dummy hash: %w", err)
	}

	return &DirectoryVerifier{directory: directory, hasher: hasher, dummyHash: dummy}, nil
}

// Verify implements Verifier.
func (v *DirectoryVerifier) Verify(ctx context.Context, name, secret string) (Identity, error) {
	if name == "" || secret == "" {
		return Identity{}, errors.Join(ErrInvalidCredentials, ErrMissingCredentials)
	}

	user, err := v.directory.LookupByName(ctx, name)
	switch {
	case errors.Is(err, ErrUserNotFound):
		_, _ = v.hasher.Verify(secret, v.dummyHash)
		return Identity{}, ErrInvalidCredentials
	case err != nil:
		if errors.Is(err, ErrDirectoryUnavailable) {
			return Identity{}, err
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	ok, err := v.hasher.Verify(secret, user.SecretHash)
	if err != nil || !ok || user.Disabled {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{UserID: user.ID, DisplayName: user.Name}, nil
}
