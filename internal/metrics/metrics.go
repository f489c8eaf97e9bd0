// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	TransitionsTotal        = expvar.NewInt("transitions_total")
	InvalidTransitions      = expvar.NewInt("invalid_transitions")
	PersistenceFailures     = expvar.NewInt("persistence_failures")
	SchedulerFailures       = expvar.NewInt("scheduler_failures")
	WakesRegistered         = expvar.NewInt("wakes_registered")
	WakesUnregistered       = expvar.NewInt("wakes_unregistered")
	NotificationsSent       = expvar.NewInt("notifications_sent")
	NotificationsFailed     = expvar.NewInt("notifications_failed")
	DuplicatesCollapsed     = expvar.NewInt("duplicates_collapsed")
	RingtoneLookupsDegraded = expvar.NewInt("ringtone_lookups_degraded")
	SweepFailures           = expvar.NewInt("sweep_failures")
)
