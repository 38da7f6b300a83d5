package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Flow names the operation a limit applies to.
type Flow string

const (
	FlowSignup Flow = "signup"
	FlowSignin Flow = "signin"
	FlowResend Flow = "resend"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Cooldown    time.Duration
	Prefix      string
}

// Limiter gates (flow, email) pairs with a fixed-window attempt counter and a
// create-if-absent cooldown flag.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// incrWithTTLLua increments the counter and arms its expiry on the first hit
// in the same round trip, so a crash between INCR and EXPIRE cannot leave a
// counter that never expires.
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
var incrWithTTLLua = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Admit runs both gates for (flow, email). The counter runs first, so a
// request past the attempt budget reports ErrTooManyAttempts even while the
// cooldown flag is also set.
func (l *Limiter) Admit(ctx context.Context, flow Flow, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	count, err := l.incrementWithTTL(ctx, l.counterKey(flow, email), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrTooManyAttempts
	}

	acquired, err := l.redis.SetNX(ctx, l.cooldownKey(flow, email), 1, l.config.Cooldown).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !acquired {
		return ErrTooManyRequests
	}

	return nil
}

// Reset clears both gates for (flow, email).
func (l *Limiter) Reset(ctx context.Context, flow Flow, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := l.redis.Del(ctx, l.counterKey(flow, email), l.cooldownKey(flow, email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := incrWithTTLLua.Run(ctx, l.redis, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

func (l *Limiter) counterKey(flow Flow, email string) string {
	return l.config.Prefix + ":c:" + string(flow) + ":" + email
}

func (l *Limiter) cooldownKey(flow Flow, email string) string {
	return l.config.Prefix + ":cd:" + string(flow) + ":" + email
}
