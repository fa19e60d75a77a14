package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fuelrefund-service/pkg/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisLocker serializes write paths across service replicas
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	logger logger.Logger
}

// NewRedisLocker creates a locker on top of a Redis client. Lock waits up to
// roughly ttl for a busy key before giving up.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger logger.Logger) *RedisLocker {
	backoff := 200 * time.Millisecond
	attempts := int(ttl / backoff)
	if attempts < 1 {
		attempts = 1
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(backoff), attempts),
		logger: logger,
	}
}

// Lock obtains the key, waiting while another holder has it
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lock, err := l.client.Obtain(ctx, lockKey, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("could not obtain lock %s: %w", key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("error obtaining lock %s: %w", key, err)
	}

	return func() {
		// Release with a fresh context; the caller's may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release lock", "key", lockKey, "error", err)
		}
	}, nil
}
