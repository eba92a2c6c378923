package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per username and blocks the username for a
// cooldown once the limit is reached.
type LoginLimiter struct {
	redis       *redis.Client
	maxAttempts int
	cooldown    time.Duration
}

func NewLoginLimiter(rdb *redis.Client, maxAttempts int, cooldown time.Duration) *LoginLimiter {
	return &LoginLimiter{redis: rdb, maxAttempts: maxAttempts, cooldown: cooldown}
}

func attemptsKey(username string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(username))
}

func cooldownKey(username string) string {
	return "login_cooldown:" + strings.ToLower(strings.TrimSpace(username))
}

// Blocked returns the remaining cooldown, or zero when the username may try again.
func (l *LoginLimiter) Blocked(ctx context.Context, username string) (time.Duration, error) {
	ttl, err := l.redis.TTL(ctx, cooldownKey(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read login cooldown: %w", err)
	}
	// TTL reports negative values for missing keys and keys without expiry.
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// RegisterFailure records a failed attempt and returns how many remain before
// the cooldown starts.
func (l *LoginLimiter) RegisterFailure(ctx context.Context, username string) (int, error) {
	key := attemptsKey(username)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}

	attempts := int(incr.Val())
	if attempts < l.maxAttempts {
		return l.maxAttempts - attempts, nil
	}

	pipe = l.redis.TxPipeline()
	pipe.Set(ctx, cooldownKey(username), "1", l.cooldown)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to start login cooldown: %w", err)
	}
	return 0, nil
}

func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, attemptsKey(username), cooldownKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}
