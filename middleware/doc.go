// Package middleware exposes net/http adapters around authcore.Engine.
//
// # Guards
//
//   - [Guard] verifies the access token only. It never touches the session store.
//   - [RequireActiveSession] additionally checks the bound session is still active.
//
// Guards read the access token from the configured cookie, falling back to an
// Authorization bearer header, and put an [AuthResult] into the request context.
// Rejections go through an [ErrorHandler]; [PlainErrorHandler] is the default and the
// WithErrorHandler variants let a server answer in its own error format.
//
// # Cookies
//
// [SetLoginCookies], [SetAccessCookie] and [ClearCookies] write both credentials with the
// attributes from authcore.CookieConfig. Either both login cookies are written or none.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the session store except through Engine.
package middleware
