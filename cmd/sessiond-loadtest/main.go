// Command sessiond-loadtest measures access token validation and refresh
// rotation throughput of an in-process engine.
//
// Sessions are seeded through the real signup and OTP confirmation path with
// cheap argon2 parameters. Refresh tokens live in memory; pending
// verifications and rate limits use Redis (REDIS_ADDR or miniredis).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/memstore"
	"github.com/MrEthical07/goSession/mailer"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sessionState struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func main() {
	var (
		sessions    = flag.Int("sessions", 2000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (validate + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	if err := run(*sessions, *concurrency, *ops, *redisAddr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(sessions, concurrency, ops int, addr string) error {
	ctx := context.Background()

	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	var codes sync.Map
	cfg := goSession.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-secret-loadtest-secret-!")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(memstore.NewCredentials()).
		WithRefreshTokenStore(memstore.NewRefreshTokens()).
		WithMailer(mailer.SenderFunc(func(_ context.Context, to, code string) error {
			codes.Store(to, code)
			return nil
		})).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	fmt.Printf("seeding %d sessions...\n", sessions)
	startSeed := time.Now()
	states, err := seed(ctx, engine, &codes, sessions, concurrency)
	if err != nil {
		return err
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runPhase(ops, concurrency, func(r *rand.Rand) error {
		state := &states[r.Intn(len(states))]
		_, err := engine.ValidateAccessToken(ctx, state.access)
		return err
	})
	rotateStats := runPhase(ops, concurrency, func(r *rand.Rand) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()
		pair, err := engine.RotateRefreshToken(ctx, state.refresh)
		if err != nil {
			return err
		}
		state.access, state.refresh = pair.AccessToken, pair.RefreshToken
		return nil
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("rotate", rotateStats)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("refresh_failure=%d refresh_reuse_detected=%d\n",
		snapshot.Counters[goSession.MetricRefreshFailure],
		snapshot.Counters[goSession.MetricRefreshReuseDetected],
	)
	return nil
}

func seed(ctx context.Context, engine *goSession.Engine, codes *sync.Map, n, concurrency int) ([]sessionState, error) {
	states := make([]sessionState, n)
	var (
		wg      sync.WaitGroup
		cursor  int64
		failed  atomic.Bool
		once    sync.Once
		seedErr error
	)
	fail := func(err error) {
		once.Do(func() { seedErr = err })
		failed.Store(true)
	}
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n || failed.Load() {
					return
				}
				email := fmt.Sprintf("load-%d@example.com", i)
				id, err := engine.BeginSignup(ctx, goSession.SignupRequest{Email: email, Username: email, Password: "load-test-password"})
				if err != nil {
					fail(fmt.Errorf("signup %s: %w", email, err))
					return
				}
				code, _ := codes.Load(email)
				pair, err := engine.ConfirmOTP(ctx, id, code.(string))
				if err != nil {
					fail(fmt.Errorf("confirm %s: %w", email, err))
					return
				}
				states[i].access, states[i].refresh = pair.AccessToken, pair.RefreshToken
			}
		}()
	}
	wg.Wait()
	if seedErr != nil {
		return nil, seedErr
	}
	return states, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
