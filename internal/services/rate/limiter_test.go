package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/babymaxMAX/lsj-love/internal/repo/redis"
)

func TestLimiterBlocksMatchmakingWithinMinute(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client)).
		WithRule(ActionMatchmaking, Rule{Limit: 2, Window: time.Minute})

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.AllowMatchmaking(ctx, userID)
		if err != nil {
			t.Fatalf("allow matchmaking #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowMatchmaking(ctx, userID)
	if err != nil {
		t.Fatalf("allow matchmaking #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third request in minute window")
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Fatalf("unexpected retry_after: %d", retryAfter)
	}

	currentRetry, err := limiter.RetryAfter(ctx, ActionMatchmaking, userID)
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if currentRetry <= 0 {
		t.Fatalf("expected positive retry_after state, got %d", currentRetry)
	}

	mr.FastForward(61 * time.Second)

	retryAfter, allowed, err = limiter.AllowMatchmaking(ctx, userID)
	if err != nil {
		t.Fatalf("allow matchmaking after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterKeepsActionsAndUsersApart(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client)).
		WithRule(ActionMatchmaking, Rule{Limit: 1, Window: time.Minute}).
		WithRule(ActionLike, Rule{Limit: 1, Window: 10 * time.Second})

	ctx := context.Background()

	if _, allowed, _ := limiter.AllowMatchmaking(ctx, 1); !allowed {
		t.Fatalf("first matchmaking request must pass")
	}
	if _, allowed, _ := limiter.Allow(ctx, ActionLike, 1); !allowed {
		t.Fatalf("like counter must not share the matchmaking window")
	}
	if _, allowed, _ := limiter.AllowMatchmaking(ctx, 2); !allowed {
		t.Fatalf("another user must have a separate window")
	}
	if _, allowed, _ := limiter.AllowMatchmaking(ctx, 1); allowed {
		t.Fatalf("second matchmaking request must be blocked")
	}
}

func TestLimiterWithoutRulesAllowsEverything(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client)).
		WithRule(ActionMatchmaking, Rule{Limit: 0, Window: time.Minute})

	for i := 0; i < 5; i++ {
		if _, allowed, err := limiter.AllowMatchmaking(context.Background(), 9); err != nil || !allowed {
			t.Fatalf("disabled rule must allow request #%d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
}

func TestLimiterRejectsInvalidUser(t *testing.T) {
	limiter := NewLimiter(nil)
	if _, _, err := limiter.AllowMatchmaking(context.Background(), 0); err == nil {
		t.Fatalf("expected error for invalid user id")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
