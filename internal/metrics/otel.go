package metrics

import (
	"context"
	"expvar"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

var counters = map[string]*expvar.Int{
	"alarmd.transitions":               TransitionsTotal,
	"alarmd.transitions.invalid":       InvalidTransitions,
	"alarmd.persistence.failures":      PersistenceFailures,
	"alarmd.scheduler.failures":        SchedulerFailures,
	"alarmd.wakes.registered":          WakesRegistered,
	"alarmd.wakes.unregistered":        WakesUnregistered,
	"alarmd.notifications.sent":        NotificationsSent,
	"alarmd.notifications.failed":      NotificationsFailed,
	"alarmd.instances.duplicates":      DuplicatesCollapsed,
	"alarmd.ringtone.lookups.degraded": RingtoneLookupsDegraded,
	"alarmd.sweep.failures":            SweepFailures,
}

// Register exposes every expvar counter as an OpenTelemetry observable
// counter on meter. The expvar values stay the source of truth.
func Register(meter metric.Meter) error {
	observables := make([]metric.Observable, 0, len(counters))
	byInstrument := make(map[metric.Int64ObservableCounter]*expvar.Int, len(counters))

	for name, v := range counters {
		c, err := meter.Int64ObservableCounter(name)
		if err != nil {
			return fmt.Errorf("creating counter %s: %w", name, err)
		}
		observables = append(observables, c)
		byInstrument[c] = v
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for c, v := range byInstrument {
			o.ObserveInt64(c, v.Value())
		}
		return nil
	}, observables...)
	if err != nil {
		return fmt.Errorf("registering metrics callback: %w", err)
	}
	return nil
}
