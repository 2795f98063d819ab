package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	logInKeyPrefix = "gpl:"
	resetKeyPrefix = "gpr:"
)

// Config holds limiter budgets. A zero Max disables that counter.
type Config struct {
	MaxLogInFailures      int
	LogInCooldown         time.Duration
	MaxPasswordResets     int
	PasswordResetCooldown time.Duration
}

// Limiter keeps per-identifier attempt counters in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogIn reports ErrRateLimited when username has used up its failure
// budget for the current window. It does not count an attempt.
func (l *Limiter) CheckLogIn(ctx context.Context, username string) error {
	if l.config.MaxLogInFailures <= 0 {
		return nil
	}
	return l.checkCounter(ctx, logInKey(username), l.config.MaxLogInFailures)
}

// IncrementLogIn records one failed log-in for username.
func (l *Limiter) IncrementLogIn(ctx context.Context, username string) error {
	if l.config.MaxLogInFailures <= 0 {
		return nil
	}
	_, err := l.incrementWithTTL(ctx, logInKey(username), l.config.LogInCooldown)
	return err
}

// ResetLogIn clears the failure counter after a successful log-in.
func (l *Limiter) ResetLogIn(ctx context.Context, username string) error {
	if l.config.MaxLogInFailures <= 0 {
		return nil
	}
	if err := l.redis.Del(ctx, logInKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckPasswordReset reports ErrRateLimited when email has already requested
// the maximum number of resets in the current window.
func (l *Limiter) CheckPasswordReset(ctx context.Context, email string) error {
	if l.config.MaxPasswordResets <= 0 {
		return nil
	}
	return l.checkCounter(ctx, resetKey(email), l.config.MaxPasswordResets)
}

// IncrementPasswordReset records one reset request for email.
func (l *Limiter) IncrementPasswordReset(ctx context.Context, email string) error {
	if l.config.MaxPasswordResets <= 0 {
		return nil
	}
	_, err := l.incrementWithTTL(ctx, resetKey(email), l.config.PasswordResetCooldown)
	return err
}

// LogInFailures returns the current failure counter for username.
// Missing keys return zero.
func (l *Limiter) LogInFailures(ctx context.Context, username string) (int, error) {
	count, err := l.redis.Get(ctx, logInKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: TTL is set only on the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func logInKey(username string) string {
	return logInKeyPrefix + username
}

// Emails are case-insensitive for the backend's reset lookup.
func resetKey(email string) string {
	return resetKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
