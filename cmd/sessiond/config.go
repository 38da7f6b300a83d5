package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/caarlos0/env/v11"
)

// config is read from SESSIOND_* variables. The *_FILE variants name a file
// holding the secret, as mounted under /run/secrets, and win over the inline
// value.
type config struct {
	Addr     string     `env:"SESSIOND_ADDR"      envDefault:":8080"`
	LogLevel slog.Level `env:"SESSIOND_LOG_LEVEL" envDefault:"INFO"`

	// Dev runs against miniredis and in-memory stores.
	Dev bool `env:"SESSIOND_DEV"`

	DatabaseURL     string `env:"SESSIOND_DATABASE_URL"`
	DatabaseURLFile string `env:"SESSIOND_DATABASE_URL_FILE,file"`
	RedisURL        string `env:"SESSIOND_REDIS_URL"`

	JWTSecret     string        `env:"SESSIOND_JWT_SECRET"`
	JWTSecretFile string        `env:"SESSIOND_JWT_SECRET_FILE,file"`
	JWTIssuer     string        `env:"SESSIOND_JWT_ISSUER"`
	JWTAudience   string        `env:"SESSIOND_JWT_AUDIENCE"`
	AccessTTL     time.Duration `env:"SESSIOND_ACCESS_TTL"`
	RefreshTTL    time.Duration `env:"SESSIOND_REFRESH_TTL"`

	OTPDigits      int           `env:"SESSIOND_OTP_DIGITS"`
	OTPTTL         time.Duration `env:"SESSIOND_OTP_TTL"`
	OTPMaxAttempts int           `env:"SESSIOND_OTP_MAX_ATTEMPTS"`

	RateMaxAttempts int           `env:"SESSIOND_RATE_MAX_ATTEMPTS"`
	RateWindow      time.Duration `env:"SESSIOND_RATE_WINDOW"`
	RateCooldown    time.Duration `env:"SESSIOND_RATE_COOLDOWN"`

	AcceptLegacyBcrypt bool `env:"SESSIOND_ACCEPT_LEGACY_BCRYPT"`
	Audit              bool `env:"SESSIOND_AUDIT"             envDefault:"true"`
	LatencyHistograms  bool `env:"SESSIOND_LATENCY_HISTOGRAMS"`

	MailerURL        string `env:"SESSIOND_MAILER_URL"`
	MailerAPIKey     string `env:"SESSIOND_MAILER_API_KEY"`
	MailerAPIKeyFile string `env:"SESSIOND_MAILER_API_KEY_FILE,file"`
	MailerSubject    string `env:"SESSIOND_MAILER_SUBJECT"`

	SecureCookies bool `env:"SESSIOND_SECURE_COOKIES" envDefault:"true"`
}

func loadConfig(environ map[string]string) (config, error) {
	var cfg config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.JWTSecret = pickSecret(cfg.JWTSecretFile, cfg.JWTSecret)
	cfg.DatabaseURL = pickSecret(cfg.DatabaseURLFile, cfg.DatabaseURL)
	cfg.MailerAPIKey = pickSecret(cfg.MailerAPIKeyFile, cfg.MailerAPIKey)

	if cfg.JWTSecret == "" {
		return config{}, errors.New("SESSIOND_JWT_SECRET or SESSIOND_JWT_SECRET_FILE required")
	}
	if !cfg.Dev {
		if cfg.DatabaseURL == "" {
			return config{}, errors.New("SESSIOND_DATABASE_URL required outside dev mode")
		}
		if cfg.RedisURL == "" {
			return config{}, errors.New("SESSIOND_REDIS_URL required outside dev mode")
		}
	}
	return cfg, nil
}

func pickSecret(fromFile, inline string) string {
	if v := strings.TrimSpace(fromFile); v != "" {
		return v
	}
	return inline
}

// engineConfig overlays the set variables on goSession defaults.
func (c config) engineConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.JWT.Secret = []byte(c.JWTSecret)
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.JWT.Audience = c.JWTAudience
	setDuration(&cfg.JWT.AccessTTL, c.AccessTTL)
	setDuration(&cfg.JWT.RefreshTTL, c.RefreshTTL)

	setInt(&cfg.Verification.OTPDigits, c.OTPDigits)
	setDuration(&cfg.Verification.TTL, c.OTPTTL)
	setInt(&cfg.Verification.MaxAttempts, c.OTPMaxAttempts)

	setInt(&cfg.RateLimit.MaxAttempts, c.RateMaxAttempts)
	setDuration(&cfg.RateLimit.Window, c.RateWindow)
	setDuration(&cfg.RateLimit.Cooldown, c.RateCooldown)

	cfg.Password.AcceptLegacyBcrypt = c.AcceptLegacyBcrypt
	cfg.Audit.Enabled = c.Audit
	cfg.Metrics.EnableLatencyHistograms = c.LatencyHistograms
	return cfg
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
