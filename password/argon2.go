package password

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// DefaultMinSecretBytes admits four-digit PINs.
const DefaultMinSecretBytes = 4

// ErrSecretTooShort is returned by Hash for secrets under the configured minimum.
var ErrSecretTooShort = errors.New("secret too short")

// Config holds Argon2id cost parameters.
type Config struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinSecretBytes int
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		Memory:         64 * 1024,
		Time:           3,
		Parallelism:    2,
		SaltLength:     16,
		KeyLength:      32,
		MinSecretBytes: DefaultMinSecretBytes,
	}
}

// Argon2 is safe for concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MinSecretBytes == 0 {
		cfg.MinSecretBytes = DefaultMinSecretBytes
	}
	return &Argon2{config: cfg}, nil
}

// Hash returns a PHC string for secret. Bytes are used exactly as given.
func (a *Argon2) Hash(secret string) (string, error) {
	if len(secret) < a.config.MinSecretBytes {
		return "", fmt.Errorf("%w: need at least %d bytes", ErrSecretTooShort, a.config.MinSecretBytes)
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(secret), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return encodePHC(phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
		hash:        key,
	}), nil
}

// Verify reports whether secret matches encodedHash. A malformed hash is an error, a
// mismatch is not.
func (a *Argon2) Verify(secret string, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(secret), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, uint32(len(parsed.hash)))

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker parameters than a.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	return a.config.Memory > parsed.memory ||
		a.config.Time > parsed.time ||
		a.config.Parallelism > parsed.parallelism ||
		a.config.KeyLength != uint32(len(parsed.hash)), nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Memory < minMemoryKB:
		return errors.New("password memory must be >= 8192 KB")
	case cfg.Time < minTimeCost:
		return errors.New("password time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return errors.New("password salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return errors.New("password key length must be >= 16")
	case cfg.MinSecretBytes < 0:
		return errors.New("password minimum secret length must be >= 0")
	}
	return nil
}
