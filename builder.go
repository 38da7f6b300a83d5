package goSession

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logging"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/internal/stores"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/mailer"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Builder collects dependencies and produces an [Engine]. A Builder can be
// built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	db     *sql.DB

	credentials   CredentialStore
	refreshTokens RefreshTokenStore
	mailer        mailer.Sender
	logger        *slog.Logger
	auditSink     AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client for pending verifications and rate limits.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDB backs credentials and refresh tokens with the Postgres stores.
// Stores set with WithCredentialStore or WithRefreshTokenStore take
// precedence.
func (b *Builder) WithDB(db *sql.DB) *Builder {
	b.db = db
	return b
}

func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

func (b *Builder) WithRefreshTokenStore(store RefreshTokenStore) *Builder {
	b.refreshTokens = store
	return b
}

// WithMailer sets the OTP transport. It is required.
func (b *Builder) WithMailer(sender mailer.Sender) *Builder {
	b.mailer = sender
	return b
}

// WithLogger sets the engine logger. Without it the engine logs nothing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. It takes effect only when
// Config.Audit.Enabled is true. The default sink writes to the engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component. It performs
// no I/O.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	credentials := b.credentials
	refreshTokens := b.refreshTokens
	if b.db != nil {
		if credentials == nil {
			credentials = credential.NewPostgresStore(b.db)
		}
		if refreshTokens == nil {
			refreshTokens = refresh.NewPostgresStore(b.db)
		}
	}
	if credentials == nil {
		return nil, errors.New("credential store or database required")
	}
	if refreshTokens == nil {
		return nil, errors.New("refresh token store or database required")
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}

	// -------- HASHING --------
	hasher, err := password.NewArgon2(password.Config{
		Memory:             cfg.Password.Memory,
		Time:               cfg.Password.Time,
		Parallelism:        cfg.Password.Parallelism,
		SaltLength:         cfg.Password.SaltLength,
		KeyLength:          cfg.Password.KeyLength,
		AcceptLegacyBcrypt: cfg.Password.AcceptLegacyBcrypt,
	})
	if err != nil {
		return nil, err
	}

	// -------- ACCESS TOKENS --------
	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:    cfg.JWT.Secret,
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		Leeway:    cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- REDIS STATE --------
	limiter := rate.New(b.redis, rate.Config{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
		Cooldown:    cfg.RateLimit.Cooldown,
		Prefix:      cfg.RateLimit.RedisPrefix,
	})
	pending := stores.NewPendingStore(b.redis, cfg.Verification.RedisPrefix)

	// -------- AUDIT + METRICS --------
	sink := b.auditSink
	if sink == nil {
		sink = internalaudit.NewSlogSink(logger)
	}

	metrics := internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Metrics.Enabled,
		EnableLatency: cfg.Metrics.EnableLatencyHistograms,
	})

	e := &Engine{
		config:  cfg,
		logger:  logger,
		jwt:     jwtManager,
		hasher:  hasher,
		mailer:  b.mailer,
		audit:   internalaudit.NewDispatcher(internalaudit.Config(cfg.Audit), sink),
		metrics: metrics,
		now:     time.Now,
	}

	e.deps = flows.Deps{
		Credentials: flows.CredentialDeps{
			Store:             credentials,
			Hasher:            hasher,
			MinPasswordLength: cfg.Password.MinLength,
			Warn:              logger.Warn,
		},
		Pending: flows.PendingDeps{
			Store:             pending,
			Limiter:           limiter,
			Hasher:            hasher,
			NewVerificationID: uuid.NewString,
			NewCode:           internal.NewNumericCode,
			OTPDigits:         cfg.Verification.OTPDigits,
			TTL:               cfg.Verification.TTL,
			MaxAttempts:       cfg.Verification.MaxAttempts,
			Warn:              logger.Warn,
		},
		Tokens: flows.TokenDeps{
			Store:      refreshTokens,
			Access:     jwtManager,
			NewToken:   internal.NewRandomToken,
			HashToken:  internal.HashToken,
			NewID:      uuid.NewString,
			Now:        func() time.Time { return e.now() },
			RefreshTTL: cfg.JWT.RefreshTTL,
			Role:       cfg.Role,
			OnReuse:    e.onRefreshReuse,
		},
	}

	b.built = true
	return e, nil
}
