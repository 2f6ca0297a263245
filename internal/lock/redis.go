package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

// Redis is a lock shared by every process using the same Redis key.
// The TTL bounds how long a crashed holder can keep the lock.
type Redis struct {
	client       rueidis.Client
	key          string
	ttl          time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewRedis creates a Redis lock on key.
func NewRedis(client rueidis.Client, key string, ttl, pollInterval time.Duration, logger *zap.Logger) *Redis {
	return &Redis{
		client:       client,
		key:          key,
		ttl:          ttl,
		pollInterval: pollInterval,
		logger:       logger.Named("redis_lock"),
	}
}

// Lock implements Locker. Acquisition is retried with backoff until ctx is done.
func (r *Redis) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.pollInterval),
		backoff.WithMaxInterval(10*r.pollInterval),
		backoff.WithMaxElapsedTime(0),
	)

	err := backoff.Retry(func() error {
		err := r.client.Do(ctx, r.client.B().Set().
			Key(r.key).
			Value(token).
			Nx().
			PxMilliseconds(r.ttl.Milliseconds()).
			Build()).Error()
		if rueidis.IsRedisNil(err) {
			return ErrNotAcquired
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ErrNotAcquired) {
			err = ctxErr
		}
		return nil, fmt.Errorf("failed to acquire redis lock %q: %w", r.key, err)
	}

	return r.unlocker(token), nil
}

// TryLock makes a single acquisition attempt. It returns ErrNotAcquired when
// the lock is held elsewhere.
func (r *Redis) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	err := r.client.Do(ctx, r.client.B().Set().
		Key(r.key).
		Value(token).
		Nx().
		PxMilliseconds(r.ttl.Milliseconds()).
		Build()).Error()
	if rueidis.IsRedisNil(err) {
		return nil, ErrNotAcquired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire redis lock %q: %w", r.key, err)
	}

	return r.unlocker(token), nil
}

func (r *Redis) unlocker(token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { r.release(token) })
	}
}

func (r *Redis) release(token string) {
	// Release must go through even when the caller's context was canceled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deleted, err := r.client.Do(ctx, r.client.B().Eval().
		Script(releaseScript).
		Numkeys(1).
		Key(r.key).
		Arg(token).
		Build()).AsInt64()
	if err != nil {
		r.logger.Error("Failed to release lock", zap.String("key", r.key), zap.Error(err))
		return
	}
	if deleted == 0 {
		r.logger.Warn("Lock expired before release", zap.String("key", r.key), zap.Duration("ttl", r.ttl))
	}
}
