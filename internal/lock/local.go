package lock

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Local is an in-process lock. Waiters are served in the order they arrived.
type Local struct {
	sem *semaphore.Weighted
}

// NewLocal creates an unlocked Local.
func NewLocal() *Local {
	return &Local{sem: semaphore.NewWeighted(1)}
}

// Lock implements Locker.
func (l *Local) Lock(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire local lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.sem.Release(1) })
	}, nil
}
