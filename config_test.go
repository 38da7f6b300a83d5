package goSession

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/internal/memstore"
	"github.com/MrEthical07/goSession/mailer"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDefaultConfigNeedsOnlySecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "Secret") {
		t.Fatalf("expected secret error, got %v", err)
	}
	cfg.JWT.Secret = []byte(testSecret)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with secret must validate: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }, "AccessTTL"},
		{"refresh not longer than access", func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL }, "RefreshTTL"},
		{"leeway", func(c *Config) { c.JWT.Leeway = 5 * time.Minute }, "Leeway"},
		{"argon memory", func(c *Config) { c.Password.Memory = 1024 }, "Memory"},
		{"min length", func(c *Config) { c.Password.MinLength = 0 }, "MinLength"},
		{"otp digits", func(c *Config) { c.Verification.OTPDigits = 3 }, "OTPDigits"},
		{"otp ttl", func(c *Config) { c.Verification.TTL = 0 }, "TTL"},
		{"otp attempts", func(c *Config) { c.Verification.MaxAttempts = 0 }, "MaxAttempts"},
		{"rate window", func(c *Config) { c.RateLimit.Window = 0 }, "Window"},
		{"rate cooldown", func(c *Config) { c.RateLimit.Cooldown = 0 }, "Cooldown"},
		{"shared prefix", func(c *Config) { c.RateLimit.RedisPrefix = "x"; c.Verification.RedisPrefix = "x" }, "prefixes"},
		{"audit buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, "BufferSize"},
		{"role", func(c *Config) { c.Role = "" }, "Role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestWithConfigCopiesSecret(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'X'
	if b.config.JWT.Secret[0] == 'X' {
		t.Fatal("builder must not alias the caller's secret")
	}
}

func TestBuildRequiresDependencies(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	noop := mailer.SenderFunc(func(context.Context, string, string) error { return nil })

	tests := []struct {
		name  string
		build func() *Builder
		want  string
	}{
		{"redis", func() *Builder {
			return New().WithConfig(testConfig()).WithMailer(noop).
				WithCredentialStore(memstore.NewCredentials()).WithRefreshTokenStore(memstore.NewRefreshTokens())
		}, "redis"},
		{"mailer", func() *Builder {
			return New().WithConfig(testConfig()).WithRedis(rdb).
				WithCredentialStore(memstore.NewCredentials()).WithRefreshTokenStore(memstore.NewRefreshTokens())
		}, "mailer"},
		{"credential store", func() *Builder {
			return New().WithConfig(testConfig()).WithRedis(rdb).WithMailer(noop).
				WithRefreshTokenStore(memstore.NewRefreshTokens())
		}, "credential"},
		{"refresh store", func() *Builder {
			return New().WithConfig(testConfig()).WithRedis(rdb).WithMailer(noop).
				WithCredentialStore(memstore.NewCredentials())
		}, "refresh"},
		{"invalid config", func() *Builder {
			return New().WithRedis(rdb).WithMailer(noop)
		}, "Secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build().Build(); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}

	b := New().WithConfig(testConfig()).WithRedis(rdb).WithMailer(noop).
		WithCredentialStore(memstore.NewCredentials()).WithRefreshTokenStore(memstore.NewRefreshTokens())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("second Build must fail")
	}
}

func TestNilEngineIsNotReady(t *testing.T) {
	var e *Engine
	ctx := context.Background()
	if _, err := e.BeginSignup(ctx, SignupRequest{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Signout(ctx, "x", SignoutAll); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if got := e.MetricsSnapshot(); len(got.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got)
	}
	e.Close()
}
