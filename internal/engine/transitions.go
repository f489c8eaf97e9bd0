package engine

import (
	"context"
	"errors"
	"time"

	"github.com/dwsmith1983/alarmd/internal/lifecycle"
	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Schedule persists a newly materialized instance, collapsing it onto an
// existing row for the same alarm and fire time, and registers its first
// wake. inst.ID holds the persisted id on return. A scheduler failure after
// the insert leaves the row for the recovery sweep to pick up.
func (e *Engine) Schedule(ctx context.Context, inst *types.Instance) (err error) {
	ctx, span := e.span(ctx, "Schedule", inst.ID)
	defer func() { endSpan(span, err) }()

	if lifecycle.IsTerminal(inst.State) {
		return e.invalid(inst.ID, inst.State, "schedule")
	}
	return e.repo.InsertThen(ctx, inst, func(ctx context.Context, cur *types.Instance) error {
		return e.applyWake(ctx, e.snapshot(ctx), cur)
	})
}

// Advance applies every time-based transition that is due for the instance,
// committing each step. When nothing is due it re-registers the expected
// wake and returns ErrInvalidTransition.
func (e *Engine) Advance(ctx context.Context, id int64) (err error) {
	ctx, span := e.span(ctx, "Advance", id)
	defer func() { endSpan(span, err) }()

	return e.locked(ctx, id, func(ctx context.Context, inst *types.Instance) error {
		snap := e.snapshot(ctx)
		steps := 0
		for {
			to, ok := lifecycle.NextTimed(inst.State)
			if !ok || !due(inst, snap) {
				break
			}
			next := withState(inst, to)
			if err := e.commit(ctx, snap, inst, next); err != nil {
				return err
			}
			inst = next
			steps++
		}
		if steps > 0 {
			return nil
		}

		if err := e.applyWake(ctx, snap, inst); err != nil {
			return err
		}
		return e.invalid(id, inst.State, "advance")
	})
}

// Dismiss moves any non-terminal instance to DISMISSED and unregisters its
// wake. The row is kept.
func (e *Engine) Dismiss(ctx context.Context, id int64) (err error) {
	ctx, span := e.span(ctx, "Dismiss", id)
	defer func() { endSpan(span, err) }()

	return e.locked(ctx, id, func(ctx context.Context, inst *types.Instance) error {
		if !lifecycle.CanTransition(inst.State, types.StateDismissed) {
			return e.invalid(id, inst.State, "dismiss")
		}
		return e.commit(ctx, e.snapshot(ctx), inst, withState(inst, types.StateDismissed))
	})
}

// Snooze moves a FIRED instance to SNOOZED with its fire time pushed to now
// plus the snooze duration, truncated to the minute.
func (e *Engine) Snooze(ctx context.Context, id int64) (err error) {
	ctx, span := e.span(ctx, "Snooze", id)
	defer func() { endSpan(span, err) }()

	return e.locked(ctx, id, func(ctx context.Context, inst *types.Instance) error {
		if !lifecycle.CanTransition(inst.State, types.StateSnoozed) {
			return e.invalid(id, inst.State, "snooze")
		}
		if !inst.SnoozeActionsEnabled {
			return e.invalid(id, inst.State, "snooze (disabled)")
		}

		snap := e.snapshot(ctx)
		next := withState(inst, types.StateSnoozed)
		fire := snap.now.In(snap.loc).Add(time.Duration(snap.settings.SnoozeMinutes) * time.Minute)
		next.SetScheduledFireTime(fire)
		return e.commit(ctx, snap, inst, next)
	})
}

// RingtoneEnded marks a FIRED instance MISSED when its timeout follows the
// ringtone length. Otherwise the ringtone simply loops and the event is
// rejected.
func (e *Engine) RingtoneEnded(ctx context.Context, id int64) (err error) {
	ctx, span := e.span(ctx, "RingtoneEnded", id)
	defer func() { endSpan(span, err) }()

	return e.locked(ctx, id, func(ctx context.Context, inst *types.Instance) error {
		snap := e.snapshot(ctx)
		if inst.State != types.StateFired || !inst.UsesRingtoneEndTimeout(snap.settings.Timeout) {
			return e.invalid(id, inst.State, "ringtone end")
		}
		return e.commit(ctx, snap, inst, withState(inst, types.StateMissed))
	})
}

// NextWake reports when the instance's next time-based transition is due.
func (e *Engine) NextWake(ctx context.Context, id int64) (time.Time, bool, error) {
	inst, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, false, err
	}
	at, ok := wakeTime(inst, e.snapshot(ctx))
	return at, ok, nil
}

// IsRetryable reports whether err leaves the instance needing another
// attempt, as opposed to a rejected trigger or an instance that no longer
// exists.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrInvalidTransition) &&
		!errors.Is(err, store.ErrNotFound) &&
		!errors.Is(err, types.ErrInvalidInstance)
}
