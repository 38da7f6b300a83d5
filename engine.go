package goSession

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/autherr"
	"github.com/MrEthical07/goSession/internal/flows"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/mailer"
	"github.com/MrEthical07/goSession/password"
)

// Engine runs the signup, signin, OTP confirmation, refresh rotation and
// signout operations.
//
// Engine instances are created by [Builder.Build] and are safe for concurrent use.
type Engine struct {
	config  Config
	logger  *slog.Logger
	jwt     *jwt.Manager
	hasher  *password.Argon2
	mailer  mailer.Sender
	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics
	deps    flows.Deps
	now     func() time.Time
}

// Close flushes queued audit events and stops the dispatcher. The stores are
// owned by the caller and stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events discarded because the
// queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of every counter and enabled histogram.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// ValidateAccessToken verifies an access token and returns its claims.
// It touches no store.
func (e *Engine) ValidateAccessToken(ctx context.Context, token string) (*AccessClaims, error) {
	if e == nil || e.jwt == nil {
		return nil, ErrEngineNotReady
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingAccessToken
	}

	start := time.Now()
	claims, err := e.jwt.ParseAccess(token)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrInvalidSignature):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrExpired):
			return nil, ErrAccessTokenExpired
		default:
			return nil, ErrInvalidAccessToken
		}
	}

	out := &AccessClaims{
		AccountID: claims.Subject,
		SessionID: claims.SessionID,
		Role:      claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now().UTC()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = userAgentFromContext(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = RequestIDFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

// fail logs server-side failures with their cause and passes err through.
// Client, domain and auth errors are expected traffic and are not logged.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	if err != nil && autherr.KindOf(err) == autherr.KindServer {
		e.logger.ErrorContext(ctx, "goSession: operation failed", withRequestID(ctx, []any{
			"op", op,
			"code", autherr.Code(err),
			"error", err,
		})...)
	}
	return err
}

func (e *Engine) client(ctx context.Context) flows.Client {
	return flows.Client{
		UserAgent: userAgentFromContext(ctx),
		IP:        clientIPFromContext(ctx),
	}
}

func toTokenPair(p *flows.TokenPair) *TokenPair {
	return &TokenPair{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccountID:        p.AccountID,
		SessionID:        p.SessionID,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

// normalizeEmail lower-cases and trims raw and rejects anything that is not a
// bare address.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > 254 {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return email, nil
}
