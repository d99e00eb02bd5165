package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	ActionMatchmaking = "ai_matchmaking"
	ActionLike        = "likes"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Rule caps an action to Limit hits per Window. A non-positive Limit disables it.
type Rule struct {
	Limit  int
	Window time.Duration
}

type Limiter struct {
	store WindowStore
	rules map[string][]Rule
}

func NewLimiter(store WindowStore) *Limiter {
	return &Limiter{
		store: store,
		rules: make(map[string][]Rule),
	}
}

// WithRule registers rule for action and returns the limiter for chaining.
func (l *Limiter) WithRule(action string, rule Rule) *Limiter {
	if rule.Limit > 0 && rule.Window > 0 {
		l.rules[action] = append(l.rules[action], rule)
	}
	return l
}

// Allow counts one hit for userID. When any rule is exceeded it returns the
// seconds until the longest blocking window resets.
func (l *Limiter) Allow(ctx context.Context, action string, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, rule := range l.rules[action] {
		count, ttl, err := l.store.IncrementWindow(ctx, windowKey(action, rule.Window, userID), rule.Window)
		if err != nil {
			return 0, false, err
		}
		if count > int64(rule.Limit) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

func (l *Limiter) AllowMatchmaking(ctx context.Context, userID int64) (int64, bool, error) {
	return l.Allow(ctx, ActionMatchmaking, userID)
}

// RetryAfter reports how long userID must wait before action is allowed again, without counting a hit.
func (l *Limiter) RetryAfter(ctx context.Context, action string, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, rule := range l.rules[action] {
		count, ttl, err := l.store.WindowState(ctx, windowKey(action, rule.Window, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(rule.Limit) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}
	return retryAfterSec, nil
}

func windowKey(action string, window time.Duration, userID int64) string {
	return "rate:" + action + ":" + strconv.FormatInt(int64(window/time.Second), 10) + "s:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
