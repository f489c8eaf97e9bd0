// Package scheduler registers one-shot wakes that drive time-based instance
// transitions.
package scheduler

import (
	"context"
	"time"
)

// WakeScheduler arranges for the wake handler to be invoked for an instance
// at a given time. Registering replaces any pending wake for the instance;
// unregistering a wake that does not exist succeeds.
type WakeScheduler interface {
	RegisterWake(ctx context.Context, instanceID int64, at time.Time) error
	UnregisterWake(ctx context.Context, instanceID int64) error
}

// Nop drops every wake. Deployments without a scheduler rely on the
// watchdog sweep to advance instances.
type Nop struct{}

// RegisterWake implements WakeScheduler.
func (Nop) RegisterWake(context.Context, int64, time.Time) error { return nil }

// UnregisterWake implements WakeScheduler.
func (Nop) UnregisterWake(context.Context, int64) error { return nil }
