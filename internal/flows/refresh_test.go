package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/autherr"
	"github.com/MrEthical07/goSession/internal/memstore"
	"github.com/MrEthical07/goSession/refresh"
)

type reuseCall struct {
	accountID string
	revoked   int64
}

func tokenDeps(store *memstore.RefreshTokens, now *time.Time) (TokenDeps, *[]reuseCall) {
	var (
		seq   atomic.Int64
		mu    sync.Mutex
		calls []reuseCall
	)
	return TokenDeps{
		Store:      store,
		Access:     stubAccess{},
		NewToken:   internal.NewRandomToken,
		HashToken:  internal.HashToken,
		NewID:      func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
		Now:        func() time.Time { return *now },
		RefreshTTL: 7 * 24 * time.Hour,
		Role:       "user",
		OnReuse: func(_ context.Context, rec *refresh.Record, revoked int64, _ error) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, reuseCall{accountID: rec.AccountID, revoked: revoked})
		},
	}, &calls
}

func TestIssueSessionStoresOnlyDigest(t *testing.T) {
	store := memstore.NewRefreshTokens()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deps, _ := tokenDeps(store, &now)

	pair, err := RunIssueSession(context.Background(), "acc-1", Client{UserAgent: "ua", IP: "10.0.0.1"}, deps)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken != "access.acc-1."+pair.SessionID+".user" {
		t.Fatalf("unexpected access token %q", pair.AccessToken)
	}
	if !pair.RefreshExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("expires = %v", pair.RefreshExpiresAt)
	}

	rec, err := store.FindByHash(context.Background(), internal.HashToken(pair.RefreshToken))
	if err != nil {
		t.Fatalf("lookup by digest: %v", err)
	}
	if rec.TokenHash == pair.RefreshToken || rec.UserAgent != "ua" || rec.IPAddress != "10.0.0.1" {
		t.Fatalf("unexpected stored row: %+v", rec)
	}
}

func TestAuthenticateRefreshStates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing", func(t *testing.T) {
		deps, _ := tokenDeps(memstore.NewRefreshTokens(), &now)
		if _, err := RunAuthenticateRefresh(ctx, "", deps); !errors.Is(err, autherr.ErrMissingRefresh) {
			t.Fatalf("expected ErrMissingRefresh, got %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		deps, _ := tokenDeps(memstore.NewRefreshTokens(), &now)
		if _, err := RunAuthenticateRefresh(ctx, "nope", deps); !errors.Is(err, autherr.ErrRefreshTokenInvalid) {
			t.Fatalf("expected ErrRefreshTokenInvalid, got %v", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		store := memstore.NewRefreshTokens()
		deps, _ := tokenDeps(store, &now)
		pair, err := RunIssueSession(ctx, "acc-1", Client{}, deps)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := RunRevoke(ctx, pair.RefreshToken, false, deps); err != nil {
			t.Fatalf("revoke: %v", err)
		}
		if _, err := RunAuthenticateRefresh(ctx, pair.RefreshToken, deps); !errors.Is(err, autherr.ErrRefreshTokenRevoked) {
			t.Fatalf("expected ErrRefreshTokenRevoked, got %v", err)
		}
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		store := memstore.NewRefreshTokens()
		clock := now
		deps, _ := tokenDeps(store, &clock)
		pair, err := RunIssueSession(ctx, "acc-1", Client{}, deps)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		clock = pair.RefreshExpiresAt
		if _, err := RunAuthenticateRefresh(ctx, pair.RefreshToken, deps); !errors.Is(err, autherr.ErrRefreshTokenExpired) {
			t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
		}
	})
}

func TestRotateThenReuseRevokesAccount(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewRefreshTokens()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deps, calls := tokenDeps(store, &now)

	first, err := RunIssueSession(ctx, "acc-1", Client{}, deps)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other, err := RunIssueSession(ctx, "acc-1", Client{}, deps)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}

	rotated, err := RunRotate(ctx, first.RefreshToken, Client{UserAgent: "ua2"}, deps)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.SessionID != first.SessionID || rotated.RefreshToken == first.RefreshToken {
		t.Fatalf("rotation must keep the session and change the token: %+v", rotated)
	}

	if _, err := RunRotate(ctx, first.RefreshToken, Client{}, deps); !errors.Is(err, autherr.ErrRefreshTokenReuseDetected) {
		t.Fatalf("expected ErrRefreshTokenReuseDetected, got %v", err)
	}

	states := store.States("acc-1")
	if states[refresh.StateActive] != 0 || states[refresh.StateRevoked] != 3 {
		t.Fatalf("expected every row revoked, got %v", states)
	}
	if len(*calls) != 1 || (*calls)[0].accountID != "acc-1" || (*calls)[0].revoked != 3 {
		t.Fatalf("unexpected reuse callbacks: %+v", *calls)
	}
	for _, raw := range []string{rotated.RefreshToken, other.RefreshToken} {
		if _, err := RunRotate(ctx, raw, Client{}, deps); !errors.Is(err, autherr.ErrRefreshTokenRevoked) {
			t.Fatalf("expected ErrRefreshTokenRevoked after reuse, got %v", err)
		}
	}
	if _, err := RunRotate(ctx, first.RefreshToken, Client{}, deps); !errors.Is(err, autherr.ErrRefreshTokenReuseDetected) {
		t.Fatalf("replay after revocation must still report reuse, got %v", err)
	}
}

func TestConcurrentRotationHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewRefreshTokens()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deps, _ := tokenDeps(store, &now)

	pair, err := RunIssueSession(ctx, "acc-1", Client{}, deps)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var (
		wg      sync.WaitGroup
		wins    atomic.Int64
		reuses  atomic.Int64
		workers = 8
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := RunRotate(ctx, pair.RefreshToken, Client{}, deps)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, autherr.ErrRefreshTokenReuseDetected):
				reuses.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || reuses.Load() != int64(workers-1) {
		t.Fatalf("wins=%d reuses=%d, want 1 and %d", wins.Load(), reuses.Load(), workers-1)
	}
}

func TestRotateAccessFailureLeavesPriorActive(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewRefreshTokens()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deps, _ := tokenDeps(store, &now)

	pair, err := RunIssueSession(ctx, "acc-1", Client{}, deps)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	deps.Access = stubAccess{fail: errors.New("signer down")}
	if _, err := RunRotate(ctx, pair.RefreshToken, Client{}, deps); !errors.Is(err, autherr.ErrTokenIssueFailed) {
		t.Fatalf("expected ErrTokenIssueFailed, got %v", err)
	}
	if got := store.States("acc-1"); got[refresh.StateActive] != 1 {
		t.Fatalf("prior must stay active, got %v", got)
	}
}

func TestRevokeScopes(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewRefreshTokens()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deps, _ := tokenDeps(store, &now)

	a, _ := RunIssueSession(ctx, "acc-1", Client{}, deps)
	b, _ := RunIssueSession(ctx, "acc-1", Client{}, deps)
	c, _ := RunIssueSession(ctx, "acc-1", Client{}, deps)

	if _, err := RunRevoke(ctx, a.RefreshToken, false, deps); err != nil {
		t.Fatalf("revoke one: %v", err)
	}
	if _, err := RunRevoke(ctx, a.RefreshToken, false, deps); err != nil {
		t.Fatalf("revoke one twice: %v", err)
	}
	if got := store.States("acc-1"); got[refresh.StateActive] != 2 || got[refresh.StateRevoked] != 1 {
		t.Fatalf("after revoke one: %v", got)
	}

	if _, err := RunRevoke(ctx, b.RefreshToken, true, deps); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if got := store.States("acc-1"); got[refresh.StateRevoked] != 3 {
		t.Fatalf("after revoke all: %v", got)
	}
	if _, err := RunRotate(ctx, c.RefreshToken, Client{}, deps); !errors.Is(err, autherr.ErrRefreshTokenRevoked) {
		t.Fatalf("expected ErrRefreshTokenRevoked, got %v", err)
	}

	if rec, err := RunRevoke(ctx, "unknown", true, deps); err != nil || rec != nil {
		t.Fatalf("unknown token must be a no-op, got %v, %v", rec, err)
	}
	if rec, err := RunRevoke(ctx, "", false, deps); err != nil || rec != nil {
		t.Fatalf("empty token must be a no-op, got %v, %v", rec, err)
	}
}

func TestTokenDepsNotReady(t *testing.T) {
	if _, err := RunRotate(context.Background(), "x", Client{}, TokenDeps{}); !errors.Is(err, autherr.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
