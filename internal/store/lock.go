package store

import (
	"context"
	"fmt"
	"time"
)

// Lock polling bounds.
const (
	DefaultLockTTL   = 30 * time.Second
	lockPollInitial  = 10 * time.Millisecond
	lockPollMaxDelay = 250 * time.Millisecond
)

// Locker is the locking subset of Backend.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// WithLock acquires key, waiting with exponential backoff until ctx is done,
// runs fn and releases the lock. The release survives cancellation of ctx.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(context.Context) error) error {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	delay := lockPollInitial
	for {
		ok, err := l.AcquireLock(ctx, key, ttl)
		if err != nil {
			return fmt.Errorf("acquiring lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting for lock %s: %w", key, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
		if delay > lockPollMaxDelay {
			delay = lockPollMaxDelay
		}
	}

	defer func() {
		_ = l.ReleaseLock(context.WithoutCancel(ctx), key)
	}()
	return fn(ctx)
}

// InstanceLockKey is the lock serializing all reads-then-writes of one instance.
func InstanceLockKey(id int64) string {
	return fmt.Sprintf("instance:%d", id)
}

// InsertLockKey guards the duplicate scan for one (alarm, fire time) pair.
func InsertLockKey(alarmID int64, fire time.Time) string {
	return fmt.Sprintf("insert:%d:%s", alarmID, fire.Format("200601021504"))
}
