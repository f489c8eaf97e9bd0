package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwsmith1983/alarmd/internal/metrics"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Instances is the alarm instance repository. It layers the
// duplicate-collapsing insert and sibling cleanup on top of a Backend.
type Instances struct {
	backend Backend
	wakes   WakeCanceler
	logger  *slog.Logger
	loc     *time.Location
	lockTTL time.Duration
}

// Option configures an Instances repository.
type Option func(*Instances)

// WithLogger sets the repository logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Instances) { r.logger = l }
}

// WithLocation sets the zone used to compare fire times.
func WithLocation(loc *time.Location) Option {
	return func(r *Instances) { r.loc = loc }
}

// WithLockTTL sets the TTL of the insert lock.
func WithLockTTL(d time.Duration) Option {
	return func(r *Instances) { r.lockTTL = d }
}

// NewInstances creates a repository over backend. wakes is used by
// DeleteOtherInstances and may be nil when no scheduler is wired.
func NewInstances(backend Backend, wakes WakeCanceler, opts ...Option) *Instances {
	r := &Instances{
		backend: backend,
		wakes:   wakes,
		logger:  slog.Default(),
		loc:     time.Local,
		lockTTL: DefaultLockTTL,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Backend returns the underlying storage backend.
func (r *Instances) Backend() Backend { return r.backend }

// Location returns the zone fire times are interpreted in.
func (r *Instances) Location() *time.Location { return r.loc }

// GetByID returns the instance or ErrNotFound.
func (r *Instances) GetByID(ctx context.Context, id int64) (*types.Instance, error) {
	if id == types.InvalidID {
		return nil, fmt.Errorf("instance %d: %w", id, ErrNotFound)
	}
	return r.backend.Get(ctx, id)
}

// GetByAlarmID returns every instance of alarmID, unordered.
func (r *Instances) GetByAlarmID(ctx context.Context, alarmID int64) ([]types.Instance, error) {
	return r.backend.ListByAlarm(ctx, alarmID)
}

// GetNextUpcomingByAlarmID returns the instance of alarmID with the earliest
// fire time. On ties the first one in backend order wins.
func (r *Instances) GetNextUpcomingByAlarmID(ctx context.Context, alarmID int64) (*types.Instance, error) {
	all, err := r.backend.ListByAlarm(ctx, alarmID)
	if err != nil {
		return nil, err
	}
	var (
		next   *types.Instance
		nextAt time.Time
	)
	for i := range all {
		at := all[i].ScheduledFireTime(r.loc)
		if next == nil || at.Before(nextAt) {
			next = &all[i]
			nextAt = at
		}
	}
	if next == nil {
		return nil, fmt.Errorf("no instances for alarm %d: %w", alarmID, ErrNotFound)
	}
	return next, nil
}

// GetByState returns every instance currently in state, unordered.
func (r *Instances) GetByState(ctx context.Context, state types.State) ([]types.Instance, error) {
	return r.backend.ListByState(ctx, state)
}

// Insert persists inst, collapsing it onto an existing row with the same alarm
// and fire time. Either way inst.ID holds the persisted id on success.
func (r *Instances) Insert(ctx context.Context, inst *types.Instance) error {
	return r.InsertThen(ctx, inst, nil)
}

// InsertThen is Insert followed by then, both under the persisted instance's
// lock, so no transition interleaves between the write and then. Locks are
// taken insert lock first, instance lock second.
func (r *Instances) InsertThen(ctx context.Context, inst *types.Instance, then func(context.Context, *types.Instance) error) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if inst.AlarmID == nil {
		if err := r.create(ctx, inst); err != nil {
			return err
		}
		return r.withInstance(ctx, inst, then)
	}

	fire := inst.ScheduledFireTime(r.loc)
	key := InsertLockKey(*inst.AlarmID, fire)
	return WithLock(ctx, r.backend, key, r.lockTTL, func(ctx context.Context) error {
		siblings, err := r.backend.ListByAlarm(ctx, *inst.AlarmID)
		if err != nil {
			return err
		}
		for _, s := range siblings {
			if !s.ScheduledFireTime(r.loc).Equal(fire) {
				continue
			}
			inst.ID = s.ID
			return WithLock(ctx, r.backend, InstanceLockKey(s.ID), r.lockTTL, func(ctx context.Context) error {
				metrics.DuplicatesCollapsed.Add(1)
				r.logger.Info("collapsing duplicate instance",
					"instance", s.ID, "alarm", *inst.AlarmID, "fireTime", fire)
				if err := r.backend.Replace(ctx, *inst); err != nil {
					return persistErr("replacing duplicate", s.ID, err)
				}
				if then == nil {
					return nil
				}
				return then(ctx, inst)
			})
		}
		if err := r.create(ctx, inst); err != nil {
			return err
		}
		return r.withInstance(ctx, inst, then)
	})
}

// withInstance runs fn under inst's instance lock. A nil fn is a no-op.
func (r *Instances) withInstance(ctx context.Context, inst *types.Instance, fn func(context.Context, *types.Instance) error) error {
	if fn == nil {
		return nil
	}
	return WithLock(ctx, r.backend, InstanceLockKey(inst.ID), r.lockTTL, func(ctx context.Context) error {
		return fn(ctx, inst)
	})
}

func (r *Instances) create(ctx context.Context, inst *types.Instance) error {
	id, err := r.backend.Create(ctx, *inst)
	if err != nil {
		return persistErr("creating", inst.ID, err)
	}
	inst.ID = id
	return nil
}

// Update overwrites the row for inst.ID. It is a no-op for unpersisted
// instances and never creates a row.
func (r *Instances) Update(ctx context.Context, inst *types.Instance) error {
	if inst.ID == types.InvalidID {
		return nil
	}
	if err := inst.Validate(); err != nil {
		return err
	}
	if err := r.backend.Replace(ctx, *inst); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return persistErr("updating", inst.ID, err)
	}
	return nil
}

// Delete removes the row. Deleting InvalidID or a missing id is a no-op.
func (r *Instances) Delete(ctx context.Context, id int64) error {
	if id == types.InvalidID {
		return nil
	}
	if err := r.backend.Remove(ctx, id); err != nil {
		return persistErr("deleting", id, err)
	}
	return nil
}

// DeleteOtherInstances removes every instance of alarmID except keepID,
// unregistering each one's pending wake before deleting its row.
func (r *Instances) DeleteOtherInstances(ctx context.Context, alarmID, keepID int64) error {
	all, err := r.backend.ListByAlarm(ctx, alarmID)
	if err != nil {
		return err
	}

	var errs []error
	for _, inst := range all {
		if inst.ID == keepID {
			continue
		}
		if r.wakes != nil {
			if err := r.wakes.UnregisterWake(ctx, inst.ID); err != nil {
				// A stale wake for a deleted row is acknowledged as not-found.
				r.logger.Warn("unregistering wake for sibling failed",
					"instance", inst.ID, "alarm", alarmID, "error", err)
			} else {
				metrics.WakesUnregistered.Add(1)
			}
		}
		if err := r.Delete(ctx, inst.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func persistErr(op string, id int64, err error) error {
	metrics.PersistenceFailures.Add(1)
	return fmt.Errorf("%s instance %d: %w: %w", op, id, ErrPersistence, err)
}
