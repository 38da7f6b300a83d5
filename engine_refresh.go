package goSession

import (
	"context"
	"errors"
	"strconv"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/autherr"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/refresh"
)

// RotateRefreshToken exchanges raw for a new refresh token in the same
// session and a fresh access token.
//
// Presenting a token that was already rotated revokes every refresh token of
// its account and fails with ErrRefreshTokenReuseDetected. Of two concurrent
// rotations of one token exactly one succeeds; the other is treated as reuse.
func (e *Engine) RotateRefreshToken(ctx context.Context, raw string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	pair, err := flows.RunRotate(ctx, raw, e.client(ctx), e.deps.Tokens)
	e.metrics.Observe(MetricRotateLatency, time.Since(start))
	if err != nil {
		// Reuse is counted and audited by onRefreshReuse.
		if !errors.Is(err, ErrRefreshTokenReuseDetected) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, AuditEvent{
				EventType: internalaudit.EventRefreshRejected,
				Error:     autherr.Code(err),
			})
		}
		return nil, e.fail(ctx, "rotate_refresh_token", err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: internalaudit.EventRefreshRotated,
		AccountID: pair.AccountID,
		SessionID: pair.SessionID,
		Success:   true,
	})
	return toTokenPair(pair), nil
}

// Signout revokes the refresh token raw, or with [SignoutAll] every refresh
// token of its account. An empty or unknown token is a successful no-op.
// Access tokens stay valid until they expire.
func (e *Engine) Signout(ctx context.Context, raw string, scope SignoutScope) error {
	if e == nil {
		return ErrEngineNotReady
	}

	all := scope == SignoutAll
	rec, err := flows.RunRevoke(ctx, raw, all, e.deps.Tokens)
	if err != nil {
		return e.fail(ctx, "signout", err)
	}
	if rec == nil {
		return nil
	}

	eventType := internalaudit.EventSignout
	if all {
		eventType = internalaudit.EventSignoutAll
		e.metricInc(MetricSignoutAll)
	} else {
		e.metricInc(MetricSignout)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: eventType,
		AccountID: rec.AccountID,
		SessionID: rec.SessionID,
		Success:   true,
	})
	return nil
}

func (e *Engine) onRefreshReuse(ctx context.Context, rec *refresh.Record, revoked int64, revokeErr error) {
	e.metricInc(MetricRefreshReuseDetected)

	args := []any{
		"account_id", rec.AccountID,
		"session_id", rec.SessionID,
		"token_id", rec.ID,
		"revoked", revoked,
		"ip", clientIPFromContext(ctx),
	}
	if revokeErr != nil {
		args = append(args, "revoke_error", revokeErr)
	}
	logging.Critical(ctx, e.logger, "goSession: refresh token reuse detected", withRequestID(ctx, args)...)

	e.emitAudit(ctx, AuditEvent{
		EventType: internalaudit.EventRefreshReuse,
		AccountID: rec.AccountID,
		SessionID: rec.SessionID,
		Error:     autherr.CodeRefreshReuse,
		Metadata:  map[string]string{"revoked": strconv.FormatInt(revoked, 10)},
	})
}
