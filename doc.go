// Package authcore issues, validates and revokes login sessions.
//
// A successful [Engine.Login] yields two credentials. The access token is a short-lived
// signed JWT that [Engine.Authenticate] checks without touching storage. The refresh token
// names a server-side session record that [Engine.Refresh] looks up live on every call, so
// a revoked session stops producing access tokens immediately. [Engine.Logout] revokes that
// record and is itself a protected operation.
//
// Build an Engine once at startup:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithDirectory(directory).
//		WithRedis(client).
//		Build()
//
// Every returned error classifies into a small closed set of kinds through [KindOf]. The
// transport layer maps kinds to status codes; the core never does.
package authcore
