// Package lock provides the mutual exclusion used around infraction creation.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a lock attempt finds the lock already held.
var ErrNotAcquired = errors.New("lock is held by another owner")

// Locker guards a critical section. Every caller sharing a Locker is serialized.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done. The returned function
	// releases the lock and is safe to call more than once.
	Lock(ctx context.Context) (unlock func(), err error)
}
