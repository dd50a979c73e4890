// Package jwt mints and verifies short-lived access tokens.
//
// Access tokens are self-contained: verification needs only the configured keys and the
// caller-supplied time, never the session store. Each token carries a random jti so two
// tokens minted in the same second for the same session are never equal.
package jwt
