package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
)

type (
	// CredentialStore persists accounts and login credentials.
	// [credential.PostgresStore] is the production implementation.
	CredentialStore = flows.CredentialStore
	// RefreshTokenStore persists refresh token records and performs
	// conditional rotation. [refresh.PostgresStore] is the production
	// implementation.
	RefreshTokenStore = flows.RefreshStore
)

// SignupRequest starts an email signup. The password is hashed before it
// reaches the pending verification record.
type SignupRequest struct {
	Email    string
	Username string
	Password string
}

// SigninRequest starts an email signin.
type SigninRequest struct {
	Email    string
	Password string
}

// SignoutScope selects which refresh tokens Signout revokes.
type SignoutScope uint8

const (
	// SignoutOne revokes only the presented refresh token.
	SignoutOne SignoutScope = iota
	// SignoutAll revokes every refresh token of the presented token's account.
	SignoutAll
)

func (s SignoutScope) String() string {
	switch s {
	case SignoutOne:
		return "one"
	case SignoutAll:
		return "all"
	default:
		return "unknown"
	}
}

// TokenPair is returned by ConfirmOTP and RotateRefreshToken. RefreshToken is
// the raw value; only its digest is stored.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccountID        string
	SessionID        string
	RefreshExpiresAt time.Time
}

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	AccountID string
	SessionID string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
