// Package engine drives alarm instances through their lifecycle. Every
// operation re-reads the persisted instance under a per-instance lock,
// applies the transition, moves the pending wake and persists the result
// as one commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/alarmd/internal/metrics"
	"github.com/dwsmith1983/alarmd/internal/notify"
	"github.com/dwsmith1983/alarmd/internal/ringtone"
	"github.com/dwsmith1983/alarmd/internal/scheduler"
	"github.com/dwsmith1983/alarmd/internal/settings"
	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

var (
	// ErrInvalidTransition is returned when a trigger does not apply to the
	// instance's persisted state. The instance is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrScheduler is returned when the wake scheduler rejects a change. The
	// transition is not persisted.
	ErrScheduler = errors.New("wake scheduler failure")
)

const tracerName = "github.com/dwsmith1983/alarmd/internal/engine"

// Engine is the instance state transition manager.
type Engine struct {
	repo     *store.Instances
	wakes    scheduler.WakeScheduler
	notifier notify.Notifier
	settings settings.Source
	lookup   ringtone.DurationLookup
	resolver *ringtone.Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
	lockTTL  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithDurationLookup sets the ringtone duration lookup used for
// ringtone-end timeouts. Without one every such timeout equals the fire time.
func WithDurationLookup(l ringtone.DurationLookup) Option {
	return func(e *Engine) { e.lookup = l }
}

// WithResolver overrides how nil ringtone references are resolved. By
// default they follow the DefaultRingtone of the current settings.
func WithResolver(r ringtone.Resolver) Option {
	return func(e *Engine) { e.resolver = &r }
}

// WithLockTTL sets the TTL of per-instance locks.
func WithLockTTL(d time.Duration) Option {
	return func(e *Engine) { e.lockTTL = d }
}

// New creates an Engine. A nil scheduler or notifier disables that side effect.
func New(repo *store.Instances, wakes scheduler.WakeScheduler, notifier notify.Notifier, src settings.Source, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		wakes:    wakes,
		notifier: notifier,
		settings: src,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		lockTTL:  store.DefaultLockTTL,
	}
	for _, o := range opts {
		o(e)
	}
	if e.wakes == nil {
		e.wakes = scheduler.Nop{}
	}
	return e
}

// Repository returns the instance repository the engine writes through.
func (e *Engine) Repository() *store.Instances { return e.repo }

// snapshot is the configuration one operation runs against.
type snapshot struct {
	settings types.Settings
	loc      *time.Location
	now      time.Time
	duration types.RingtoneDurationFunc
	resolver ringtone.Resolver
}

func (e *Engine) snapshot(ctx context.Context) snapshot {
	s, err := e.settings.Current(ctx)
	if err != nil {
		e.logger.Warn("settings unavailable, using source fallback", "error", err)
	}
	if err := settings.Validate(s); err != nil {
		e.logger.Warn("settings invalid, using defaults", "error", err)
		s = types.DefaultSettings()
	}

	loc := e.repo.Location()
	if s.Timezone != "" {
		if l, err := settings.Location(s); err == nil {
			loc = l
		}
	}

	r := ringtone.StaticDefault(s.DefaultRingtone)
	if e.resolver != nil {
		r = *e.resolver
	}
	return snapshot{
		settings: s,
		loc:      loc,
		now:      e.now(),
		duration: ringtone.DurationFunc(ctx, e.lookup, r, e.logger),
		resolver: r,
	}
}

// locked serializes fn against every other operation on instance id. fn
// receives the freshly read persisted record.
func (e *Engine) locked(ctx context.Context, id int64, fn func(ctx context.Context, inst *types.Instance) error) error {
	return store.WithLock(ctx, e.repo.Backend(), store.InstanceLockKey(id), e.lockTTL, func(ctx context.Context) error {
		inst, err := e.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, inst)
	})
}

// commit moves the pending wake from prev's to next's, then persists next.
// A failed write restores prev's wake so scheduler and store never disagree.
func (e *Engine) commit(ctx context.Context, snap snapshot, prev, next *types.Instance) error {
	if err := e.applyWake(ctx, snap, next); err != nil {
		return err
	}

	if err := e.repo.Update(ctx, next); err != nil {
		if rerr := e.applyWake(ctx, snap, prev); rerr != nil {
			e.logger.Error("restoring wake after failed write",
				"instance", prev.ID, "state", prev.State, "error", rerr)
		}
		return err
	}

	metrics.TransitionsTotal.Add(1)
	e.logger.Info("instance transitioned",
		"instance", next.ID, "from", prev.State, "to", next.State)
	e.notify(ctx, snap, prev.State, next)
	return nil
}

// applyWake registers inst's next wake, or unregisters it when none is due.
func (e *Engine) applyWake(ctx context.Context, snap snapshot, inst *types.Instance) error {
	at, ok := wakeTime(inst, snap)
	if ok {
		if err := e.wakes.RegisterWake(ctx, inst.ID, at); err != nil {
			metrics.SchedulerFailures.Add(1)
			return fmt.Errorf("registering wake for instance %d at %s: %w: %w", inst.ID, at.Format(time.RFC3339), ErrScheduler, err)
		}
		metrics.WakesRegistered.Add(1)
		return nil
	}
	if err := e.wakes.UnregisterWake(ctx, inst.ID); err != nil {
		metrics.SchedulerFailures.Add(1)
		return fmt.Errorf("unregistering wake for instance %d: %w: %w", inst.ID, ErrScheduler, err)
	}
	metrics.WakesUnregistered.Add(1)
	return nil
}

func (e *Engine) notify(ctx context.Context, snap snapshot, from types.State, inst *types.Instance) {
	if e.notifier == nil {
		return
	}
	for _, kind := range notificationKinds(from, inst.State) {
		e.notifier.Notify(ctx, types.Notification{
			EventID:          ulid.Make().String(),
			Kind:             kind,
			InstanceID:       inst.ID,
			AlarmID:          inst.AlarmID,
			From:             from,
			To:               inst.State,
			Label:            inst.LabelOrDefault(snap.settings.DefaultLabel),
			Ringtone:         snap.resolver.Resolve(inst),
			Vibrate:          inst.Vibrate,
			Flash:            inst.Flash,
			IncreasingVolume: inst.IncreasingVolume,
			FireTime:         inst.ScheduledFireTime(snap.loc),
			Timestamp:        snap.now,
		})
	}
}

func (e *Engine) invalid(id int64, state types.State, trigger string) error {
	metrics.InvalidTransitions.Add(1)
	e.logger.Warn("ignoring trigger", "instance", id, "state", state, "trigger", trigger)
	return fmt.Errorf("%s on instance %d in state %s: %w", trigger, id, state, ErrInvalidTransition)
}

func (e *Engine) span(ctx context.Context, op string, id int64) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "engine."+op, trace.WithAttributes(attribute.Int64("alarmd.instance.id", id)))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrInvalidTransition) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// withState returns a copy of inst in state to.
func withState(inst *types.Instance, to types.State) *types.Instance {
	next := inst.Clone()
	next.State = to
	return next
}
