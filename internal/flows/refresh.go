package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal/autherr"
	"github.com/MrEthical07/goSession/refresh"
)

// TokenDeps captures token issuance and rotation dependencies.
type TokenDeps struct {
	Store      RefreshStore
	Access     AccessIssuer
	NewToken   func() (string, error)
	HashToken  func(string) string
	NewID      func() string
	Now        func() time.Time
	RefreshTTL time.Duration
	Role       string

	// OnReuse is called after a rotated token was presented again and the
	// account's tokens were revoked. revokeErr is non-nil when the bulk
	// revocation itself failed.
	OnReuse func(ctx context.Context, rec *refresh.Record, revoked int64, revokeErr error)
}

// Client is the request metadata stored with a refresh token.
type Client struct {
	UserAgent string
	IP        string
}

// TokenPair is the result of a successful issuance or rotation.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccountID        string
	SessionID        string
	RefreshExpiresAt time.Time
}

var errRotationLost = errors.New("prior refresh token is no longer active")

// RunIssueSession starts a new session for accountID and issues its first
// access and refresh tokens.
func RunIssueSession(ctx context.Context, accountID string, client Client, deps TokenDeps) (*TokenPair, error) {
	if !deps.ready() {
		return nil, autherr.ErrEngineNotReady
	}

	sessionID := deps.NewID()
	access, err := deps.Access.IssueAccess(accountID, sessionID, deps.Role)
	if err != nil {
		return nil, autherr.Wrap(autherr.ErrTokenIssueFailed, err)
	}

	raw, rec, err := RunIssueRefresh(ctx, accountID, sessionID, client, nil, deps)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     raw,
		AccountID:        accountID,
		SessionID:        sessionID,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// RunIssueRefresh mints a refresh token for (accountID, sessionID). With a
// prior record the prior is stamped rotated and the successor inserted in one
// transaction. Only the digest of the raw token is stored.
func RunIssueRefresh(ctx context.Context, accountID, sessionID string, client Client, prior *refresh.Record, deps TokenDeps) (string, *refresh.Record, error) {
	if !deps.ready() {
		return "", nil, autherr.ErrEngineNotReady
	}

	raw, err := deps.NewToken()
	if err != nil {
		return "", nil, autherr.Wrap(autherr.ErrTokenIssueFailed, err)
	}

	now := deps.Now()
	next := &refresh.Record{
		ID:        deps.NewID(),
		AccountID: accountID,
		SessionID: sessionID,
		TokenHash: deps.HashToken(raw),
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
		CreatedAt: now,
		ExpiresAt: now.Add(deps.RefreshTTL),
	}

	if prior != nil {
		err = deps.Store.Rotate(ctx, prior, next, now)
	} else {
		err = deps.Store.Insert(ctx, next)
	}
	switch {
	case err == nil:
		return raw, next, nil
	case errors.Is(err, refresh.ErrRotationConflict):
		return "", nil, errRotationLost
	case errors.Is(err, refresh.ErrDuplicate):
		return "", nil, autherr.Wrap(autherr.ErrTokenIssueFailed, err)
	default:
		return "", nil, autherr.Unavailable("refresh tokens", err)
	}
}

// RunAuthenticateRefresh resolves raw to an active, unexpired record.
// Presenting a rotated token revokes every token of the account.
func RunAuthenticateRefresh(ctx context.Context, raw string, deps TokenDeps) (*refresh.Record, error) {
	if !deps.ready() {
		return nil, autherr.ErrEngineNotReady
	}
	if raw == "" {
		return nil, autherr.ErrMissingRefresh
	}

	rec, err := deps.Store.FindByHash(ctx, deps.HashToken(raw))
	if errors.Is(err, refresh.ErrNotFound) {
		return nil, autherr.ErrRefreshTokenInvalid
	}
	if err != nil {
		return nil, autherr.Unavailable("refresh tokens", err)
	}

	// A rotated token is checked before revocation: a replay stays a reuse
	// event even after the earlier detection revoked the row.
	if rec.RotatedAt != nil {
		return nil, handleReuse(ctx, rec, deps)
	}
	if rec.RevokedAt != nil {
		return nil, autherr.ErrRefreshTokenRevoked
	}
	if rec.Expired(deps.Now()) {
		return nil, autherr.ErrRefreshTokenExpired
	}
	return rec, nil
}

// RunRotate exchanges raw for a new refresh token in the same session and a
// new access token. Two concurrent rotations of the same token cannot both
// win; the loser is handled as reuse.
func RunRotate(ctx context.Context, raw string, client Client, deps TokenDeps) (*TokenPair, error) {
	rec, err := RunAuthenticateRefresh(ctx, raw, deps)
	if err != nil {
		return nil, err
	}

	access, err := deps.Access.IssueAccess(rec.AccountID, rec.SessionID, deps.Role)
	if err != nil {
		return nil, autherr.Wrap(autherr.ErrTokenIssueFailed, err)
	}

	nextRaw, next, err := RunIssueRefresh(ctx, rec.AccountID, rec.SessionID, client, rec, deps)
	if errors.Is(err, errRotationLost) {
		return nil, handleReuse(ctx, rec, deps)
	}
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     nextRaw,
		AccountID:        rec.AccountID,
		SessionID:        rec.SessionID,
		RefreshExpiresAt: next.ExpiresAt,
	}, nil
}

// RunRevoke revokes the token raw resolves to, or with all set every token of
// its account. Unknown or empty tokens are a no-op.
func RunRevoke(ctx context.Context, raw string, all bool, deps TokenDeps) (*refresh.Record, error) {
	if !deps.ready() {
		return nil, autherr.ErrEngineNotReady
	}
	if raw == "" {
		return nil, nil
	}

	rec, err := deps.Store.FindByHash(ctx, deps.HashToken(raw))
	if errors.Is(err, refresh.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, autherr.Unavailable("refresh tokens", err)
	}

	if all {
		if _, err := deps.Store.RevokeAll(ctx, rec.AccountID, deps.Now()); err != nil {
			return nil, autherr.Unavailable("refresh tokens", err)
		}
		return rec, nil
	}
	if err := deps.Store.RevokeOne(ctx, rec, deps.Now()); err != nil {
		return nil, autherr.Unavailable("refresh tokens", err)
	}
	return rec, nil
}

func handleReuse(ctx context.Context, rec *refresh.Record, deps TokenDeps) error {
	revoked, err := deps.Store.RevokeAll(ctx, rec.AccountID, deps.Now())
	if deps.OnReuse != nil {
		deps.OnReuse(ctx, rec, revoked, err)
	}
	if err != nil {
		return autherr.Wrap(autherr.ErrRefreshTokenReuseDetected, err)
	}
	return autherr.ErrRefreshTokenReuseDetected
}

func (d TokenDeps) ready() bool {
	return d.Store != nil &&
		d.Access != nil &&
		d.NewToken != nil &&
		d.HashToken != nil &&
		d.NewID != nil &&
		d.Now != nil
}
