package ringtone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwsmith1983/alarmd/internal/metrics"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// ErrUnknownDuration is returned when a ringtone's length cannot be resolved.
var ErrUnknownDuration = errors.New("unknown ringtone duration")

// DefaultLookupTimeout bounds a single duration lookup made during a transition.
const DefaultLookupTimeout = 3 * time.Second

// DurationLookup returns the play length of a resolved ringtone reference.
type DurationLookup interface {
	Duration(ctx context.Context, ref string) (time.Duration, error)
}

// StaticLookup serves durations from configuration.
type StaticLookup map[string]time.Duration

// NewStaticLookup parses a ref -> duration string map such as {"bell": "1m30s"}.
func NewStaticLookup(raw map[string]string) (StaticLookup, error) {
	out := make(StaticLookup, len(raw))
	for ref, s := range raw {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("ringtone %q: invalid duration %q: %w", ref, s, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("ringtone %q: duration must be positive", ref)
		}
		out[ref] = d
	}
	return out, nil
}

// Duration implements DurationLookup.
func (s StaticLookup) Duration(_ context.Context, ref string) (time.Duration, error) {
	d, ok := s[ref]
	if !ok {
		return 0, fmt.Errorf("ringtone %q: %w", ref, ErrUnknownDuration)
	}
	return d, nil
}

// Chain tries each lookup in order and returns the first success.
type Chain []DurationLookup

// Duration implements DurationLookup.
func (c Chain) Duration(ctx context.Context, ref string) (time.Duration, error) {
	var errs []error
	for _, l := range c {
		d, err := l.Duration(ctx, ref)
		if err == nil {
			return d, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return 0, fmt.Errorf("ringtone %q: %w", ref, ErrUnknownDuration)
	}
	return 0, errors.Join(errs...)
}

// DurationFunc adapts a lookup to the derivation callback. Nil references
// are resolved through r first. Failures are logged and returned so the
// caller degrades to zero added duration.
func DurationFunc(ctx context.Context, lookup DurationLookup, r Resolver, logger *slog.Logger) types.RingtoneDurationFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ref *string) (time.Duration, error) {
		resolved := r.ResolveRef(ref)
		if resolved == "" || lookup == nil {
			metrics.RingtoneLookupsDegraded.Add(1)
			return 0, ErrUnknownDuration
		}

		lctx, cancel := context.WithTimeout(ctx, DefaultLookupTimeout)
		defer cancel()
		d, err := lookup.Duration(lctx, resolved)
		if err != nil {
			metrics.RingtoneLookupsDegraded.Add(1)
			logger.Warn("ringtone duration unavailable, timing out at fire time",
				"ringtone", resolved, "error", err)
			return 0, err
		}
		return d, nil
	}
}
