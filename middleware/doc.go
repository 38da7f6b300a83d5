// Package middleware exposes HTTP middleware that admits requests carrying a
// valid goSession access token.
//
// # Guards
//
//   - [Guard]: verifies the access token and stores its claims in the request
//     context.
//   - [RequireRole]: a [Guard] that also requires one of the given roles.
//
// The token is read from the Authorization bearer header, or from a cookie
// when [WithCookie] is set. Claims are read back with [ClaimsFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Token checks are
// delegated to Engine.ValidateAccessToken, which touches no store.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Rotate or revoke refresh tokens.
//   - Make authorization decisions beyond pass/reject and the role check.
package middleware
