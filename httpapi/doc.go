// Package httpapi exposes an authcore Engine over HTTP with a chi router.
//
// Routes:
//
//	POST /auth/login    JSON {"name","pin"}; sets the access and refresh cookies
//	POST /auth/refresh  reads the refresh cookie; sets a new access cookie
//	POST /auth/logout   reads both cookies; expires them on success
//	GET  /users/me      guarded; returns the caller's identity
//	GET  /healthz       session store reachability
//	GET  /metrics       optional, whatever handler Options.Metrics supplies
//
// Engine failures are mapped to status codes by [StatusFor]. No failure response ever
// carries a Set-Cookie header.
package httpapi
