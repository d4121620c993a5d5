package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesledger/internal/apperrors"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisLocker holds locks in Redis so several API replicas serialize on the same customer.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *logrus.Logger
}

// NewRedisLocker builds a locker. ttl bounds how long a crashed holder can block others;
// wait bounds how long Acquire retries before giving up.
func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration, logger *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: lock %s not obtained", apperrors.ErrConcurrencyConflict, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WithFields(logrus.Fields{"module": "lock", "key": key}).Warn("release failed: " + err.Error())
		}
	}, nil
}
