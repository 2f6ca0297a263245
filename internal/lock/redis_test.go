package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/robalyx/warden/internal/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "warden:lock:infraction_create"

func setupRedis(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

func TestRedisLockAndRelease(t *testing.T) {
	t.Parallel()

	mr, client := setupRedis(t)
	l := lock.NewRedis(client, testKey, time.Minute, 5*time.Millisecond, zaptest.NewLogger(t))

	unlock, err := l.Lock(t.Context())
	require.NoError(t, err)
	assert.True(t, mr.Exists(testKey))

	_, err = l.TryLock(t.Context())
	require.ErrorIs(t, err, lock.ErrNotAcquired)

	unlock()
	assert.False(t, mr.Exists(testKey))

	unlock, err = l.TryLock(t.Context())
	require.NoError(t, err)
	unlock()
}

func TestRedisLockWaitsForRelease(t *testing.T) {
	t.Parallel()

	_, client := setupRedis(t)
	l := lock.NewRedis(client, testKey, time.Minute, 5*time.Millisecond, zaptest.NewLogger(t))

	unlock, err := l.Lock(t.Context())
	require.NoError(t, err)

	released := make(chan struct{})
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(released)
		unlock()
	}()

	second, err := l.Lock(t.Context())
	require.NoError(t, err)
	defer second()

	select {
	case <-released:
	default:
		t.Fatal("second holder acquired the lock before the first released it")
	}
}

func TestRedisLockContextDone(t *testing.T) {
	t.Parallel()

	_, client := setupRedis(t)
	l := lock.NewRedis(client, testKey, time.Minute, 5*time.Millisecond, zaptest.NewLogger(t))

	unlock, err := l.Lock(t.Context())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	t.Parallel()

	mr, client := setupRedis(t)
	l := lock.NewRedis(client, testKey, time.Second, 5*time.Millisecond, zaptest.NewLogger(t))

	stale, err := l.Lock(t.Context())
	require.NoError(t, err)

	// The first holder outlives its TTL and someone else takes over
	mr.FastForward(2 * time.Second)

	fresh, err := l.TryLock(t.Context())
	require.NoError(t, err)
	defer fresh()

	owner, err := mr.Get(testKey)
	require.NoError(t, err)

	stale()

	current, err := mr.Get(testKey)
	require.NoError(t, err)
	assert.Equal(t, owner, current)
}
