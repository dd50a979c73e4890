package credential

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-process Directory keyed by exact name.
type MemoryDirectory struct {
	mu     sync.RWMutex
	byName map[string]User
}

// NewMemoryDirectory returns an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{byName: make(map[string]User)}
}

// Add hashes secret and stores a new user under a random UUID. Names are unique.
func (d *MemoryDirectory) Add(name, secret string, hasher SecretHasher) (User, error) {
	if name == "" {
		return User{}, fmt.Errorf("%w: empty name", ErrMissingCredentials)
	}
	hash, err := hasher.Hash(secret)
	if err != nil {
		return User{}, err
	}

	user := User{ID: uuid.NewString(), Name: name, SecretHash: hash}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byName[name]; exists {
		return User{}, fmt.Errorf("credential: user %q already exists", name)
	}
	d.byName[name] = user
	return user, nil
}

// SetDisabled toggles the soft-delete flag. Disabled users cannot log in.
func (d *MemoryDirectory) SetDisabled(name string, disabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.byName[name]
	if !ok {
		return ErrUserNotFound
	}
	user.Disabled = disabled
	d.byName[name] = user
	return nil
}

// LookupByName implements Directory.
func (d *MemoryDirectory) LookupByName(ctx context.Context, name string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.byName[name]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
