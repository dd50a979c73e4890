// Package session persists refresh sessions and validates the refresh tokens that point at them.
//
// # Refresh tokens
//
// A refresh token is base64url(session id ‖ secret): 16 bytes of ULID followed by 32 random
// bytes. The session id gives O(1) lookup; only SHA-256(secret) is ever written to a backend.
//
// # Binary encoding
//
// The Redis backend stores each [Record] as a compact versioned blob (see [Encode]). The
// revoke script patches the revocation bytes in place, so the layout of the trailing fields
// is part of the on-disk contract.
//
// # Architecture boundaries
//
// This package owns the [Store] and its [Backend] implementations. It does NOT mint or
// verify access tokens and it never decides what a failure means to an HTTP caller.
package session
