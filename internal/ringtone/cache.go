package ringtone

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedLookup memoizes successful lookups per reference and collapses
// concurrent lookups of the same reference into one call.
type CachedLookup struct {
	next  DurationLookup
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]time.Duration
}

// NewCachedLookup wraps next with a process-lifetime cache.
func NewCachedLookup(next DurationLookup) *CachedLookup {
	return &CachedLookup{next: next, cache: make(map[string]time.Duration)}
}

// Duration implements DurationLookup.
func (c *CachedLookup) Duration(ctx context.Context, ref string) (time.Duration, error) {
	c.mu.RLock()
	d, ok := c.cache[ref]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	v, err, _ := c.group.Do(ref, func() (interface{}, error) {
		d, err := c.next.Duration(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[ref] = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(time.Duration), nil
}
