// Package jwt issues and verifies HS256 access tokens.
//
// Access tokens are stateless and carry:
//
//	{sub, session_id, role, iat, exp, type: "access"}
//
// Parse failures are reported as exactly one of [ErrInvalidSignature],
// [ErrExpired] or [ErrInvalidToken] so callers can branch on them.
package jwt
