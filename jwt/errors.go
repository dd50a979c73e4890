package jwt

import "errors"

var (
	// ErrTokenMalformed is returned when the token cannot be decoded as a JWT.
	ErrTokenMalformed = errors.New("access token malformed")
	// ErrTokenSignature is returned when the signature or key selection fails.
	ErrTokenSignature = errors.New("access token signature invalid")
	// ErrTokenVersion is returned for tokens minted with an unknown format version.
	ErrTokenVersion = errors.New("access token format version unsupported")
	// ErrTokenExpired is returned when the token is well formed and signed but past exp.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid covers every other claim check failure (iss, aud, nbf, iat).
	ErrTokenInvalid = errors.New("access token invalid")
)
