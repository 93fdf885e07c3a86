// Package ratelimit enforces per-identity budgets with the Redis INCR+EXPIRE
// window scheme. Message sends, history fetches and connection attempts each
// carry their own rule.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule is one rate limiting policy: at most Limit actions per Window, counted
// under Key + identifier in Redis.
type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

var (
	// RuleMessage caps message sends at 10 per 10 seconds per user.
	RuleMessage = Rule{Key: "rl:msg:", Limit: 10, Window: 10 * time.Second}

	// RuleHistory caps history fetches at 30 per minute per user.
	RuleHistory = Rule{Key: "rl:hist:", Limit: 30, Window: 1 * time.Minute}

	// RuleConnect caps WebSocket upgrades at 5 per minute per client IP.
	RuleConnect = Rule{Key: "rl:conn:", Limit: 5, Window: 1 * time.Minute}
)

// Limiter checks rules against Redis. A Redis outage fails open: chat keeps
// flowing and the error is surfaced to the caller for logging.
type Limiter struct {
	client *redis.Client
}

// NewLimiter creates a Limiter on the given Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow counts one action for the identifier and reports whether it is still
// inside the rule's budget. The first increment of a window sets the key
// expiry that ends it.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[ratelimit] redis INCR key=%s: %v (failing open)", key, err)
		return true, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			log.Printf("[ratelimit] redis EXPIRE key=%s: %v (failing open)", key, err)
			// Without a TTL the counter would pin the identifier forever;
			// drop it and let the next window start clean.
			l.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Limit, nil
}

// Remaining reports how much of the budget the identifier has left in the
// current window. A missing key means an untouched window; Redis errors fail
// open to the full limit.
func (l *Limiter) Remaining(ctx context.Context, identifier string, rule Rule) (int, error) {
	key := rule.Key + identifier

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		log.Printf("[ratelimit] redis GET key=%s: %v (failing open)", key, err)
		return rule.Limit, err
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
