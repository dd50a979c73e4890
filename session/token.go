package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	sessionIDSize = 16
	secretSize    = 32
	tokenSize     = sessionIDSize + secretSize
)

type refreshToken struct {
	id     ulid.ULID
	secret [secretSize]byte
}

func newRefreshToken(now time.Time) (refreshToken, error) {
	var tok refreshToken
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return tok, fmt.Errorf("generate session id: %w", err)
	}
	tok.id = id
	if _, err := rand.Read(tok.secret[:]); err != nil {
		return tok, fmt.Errorf("generate session secret: %w", err)
	}
	return tok, nil
}

func (t refreshToken) String() string {
	var raw [tokenSize]byte
	copy(raw[:sessionIDSize], t.id[:])
	copy(raw[sessionIDSize:], t.secret[:])
	return base64.RawURLEncoding.EncodeToString(raw[:])
}

func (t refreshToken) hash() [32]byte {
	return sha256.Sum256(t.secret[:])
}

func parseRefreshToken(s string) (refreshToken, error) {
	var tok refreshToken
	if base64.RawURLEncoding.DecodedLen(len(s)) != tokenSize {
		return tok, ErrTokenMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(raw) != tokenSize {
		return tok, ErrTokenMalformed
	}
	copy(tok.id[:], raw[:sessionIDSize])
	copy(tok.secret[:], raw[sessionIDSize:])
	return tok, nil
}

// SessionIDFromToken extracts the session id carried by a refresh token without any lookup.
func SessionIDFromToken(token string) (string, error) {
	tok, err := parseRefreshToken(token)
	if err != nil {
		return "", err
	}
	return tok.id.String(), nil
}
