package ringtone

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds circuit breaker settings for a remote lookup.
type BreakerConfig struct {
	FailThreshold int           // consecutive failures before opening (default 5)
	Cooldown      time.Duration // how long to stay open before half-open (default 30s)
}

// BreakerLookup fails fast while the wrapped lookup keeps erroring, so a
// broken probe degrades timeouts instead of stalling every transition.
type BreakerLookup struct {
	next DurationLookup
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerLookup wraps next in a circuit breaker. Unknown durations are
// answers, not failures, and never trip it.
func NewBreakerLookup(name string, next DurationLookup, cfg BreakerConfig) *BreakerLookup {
	if cfg.FailThreshold <= 0 {
		cfg.FailThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	threshold := uint32(cfg.FailThreshold)

	return &BreakerLookup{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: cfg.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrUnknownDuration)
			},
		}),
	}
}

// Duration implements DurationLookup.
func (b *BreakerLookup) Duration(ctx context.Context, ref string) (time.Duration, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Duration(ctx, ref)
	})
	if err != nil {
		return 0, err
	}
	return v.(time.Duration), nil
}

// State reports the breaker state, for logs and tests.
func (b *BreakerLookup) State() gobreaker.State {
	return b.cb.State()
}
