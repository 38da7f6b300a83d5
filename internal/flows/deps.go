package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/internal/stores"
	"github.com/MrEthical07/goSession/refresh"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates each operation to the matching flow implementation.
type Deps struct {
	Credentials CredentialDeps
	Pending     PendingDeps
	Tokens      TokenDeps
}

// SecretHasher hashes and verifies slow secrets (passwords and OTP codes).
// Verify returns a replacement hash when the stored one is outdated.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedHash string) (bool, string, error)
}

// CredentialStore is the durable account and credential store.
type CredentialStore interface {
	FindByEmail(ctx context.Context, provider credential.Provider, email string) (*credential.Credential, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, credentialID, passwordHash string) error
	MarkVerified(ctx context.Context, provider credential.Provider, email string) error
	CreateAccountWithEmail(ctx context.Context, username, email, passwordHash string) (*credential.Account, *credential.Credential, error)
}

// PendingStore holds pending verification records in Redis under a TTL.
type PendingStore interface {
	Save(ctx context.Context, verificationID string, record *stores.PendingRecord, ttl time.Duration) error
	Get(ctx context.Context, verificationID string) (*stores.PendingRecord, error)
	IncrementAttempts(ctx context.Context, verificationID string) (int64, error)
	UpdateOTPHash(ctx context.Context, verificationID, otpHash string) error
	ResetOTP(ctx context.Context, verificationID, otpHash string, ttl time.Duration) error
	Delete(ctx context.Context, verificationID string) (bool, error)
}

// Admitter is the rate limiter seen by the pending workflow.
type Admitter interface {
	Admit(ctx context.Context, flow rate.Flow, email string) error
}

// RefreshStore persists refresh token records and their revocation state.
type RefreshStore interface {
	Insert(ctx context.Context, rec *refresh.Record) error
	FindByHash(ctx context.Context, tokenHash string) (*refresh.Record, error)
	Rotate(ctx context.Context, prior, next *refresh.Record, now time.Time) error
	RevokeAll(ctx context.Context, accountID string, now time.Time) (int64, error)
	RevokeOne(ctx context.Context, rec *refresh.Record, now time.Time) error
}

// AccessIssuer mints signed access tokens for a session.
type AccessIssuer interface {
	IssueAccess(accountID, sessionID, role string) (string, error)
}

func nopWarn(string, ...any) {}
