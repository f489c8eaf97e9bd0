// Package watchdog recovers instances whose wakes were lost. A sweep lists
// every non-terminal instance and advances it, which applies whatever is
// overdue and re-registers the next wake. It runs at boot and periodically.
package watchdog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/alarmd/internal/engine"
	"github.com/dwsmith1983/alarmd/internal/lifecycle"
	"github.com/dwsmith1983/alarmd/internal/metrics"
	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

const (
	defaultInterval    = 5 * time.Minute
	defaultConcurrency = 8
	defaultLockWait    = 10 * time.Second
)

// Advancer applies due transitions to one instance.
type Advancer interface {
	Advance(ctx context.Context, id int64) error
}

// Lister returns the instances in a state.
type Lister interface {
	GetByState(ctx context.Context, state types.State) ([]types.Instance, error)
}

// CheckOptions configures a single sweep pass.
type CheckOptions struct {
	Store       Lister
	Engine      Advancer
	Logger      *slog.Logger
	Concurrency int           // parallel advances, defaults to 8
	LockWait    time.Duration // per-instance budget, defaults to 10s
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned  int
	Advanced int
	Idle     int
	Failed   int
}

// Sweep advances every non-terminal instance. Failures are logged and
// counted and never stop the sweep.
func Sweep(ctx context.Context, opts CheckOptions) SweepResult {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}

	ids := collect(ctx, opts)
	result := SweepResult{Scanned: len(ids)}

	var advanced, idle, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(gctx, opts.LockWait)
			defer cancel()

			err := opts.Engine.Advance(ictx, id)
			switch {
			case err == nil:
				advanced.Add(1)
			case errors.Is(err, engine.ErrInvalidTransition), errors.Is(err, store.ErrNotFound):
				idle.Add(1)
			default:
				failed.Add(1)
				metrics.SweepFailures.Add(1)
				opts.Logger.Error("watchdog: advancing instance failed", "instance", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Advanced = int(advanced.Load())
	result.Idle = int(idle.Load())
	result.Failed = int(failed.Load())
	opts.Logger.Info("watchdog: sweep complete",
		"scanned", result.Scanned, "advanced", result.Advanced, "idle", result.Idle, "failed", result.Failed)
	return result
}

// collect lists non-terminal instance ids, deduplicated across states
// since state indexes may briefly list a row under its old state.
func collect(ctx context.Context, opts CheckOptions) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, state := range lifecycle.NonTerminal() {
		if ctx.Err() != nil {
			break
		}
		rows, err := opts.Store.GetByState(ctx, state)
		if err != nil {
			metrics.SweepFailures.Add(1)
			opts.Logger.Error("watchdog: listing instances failed", "state", state, "error", err)
			continue
		}
		for _, inst := range rows {
			if !seen[inst.ID] {
				seen[inst.ID] = true
				ids = append(ids, inst.ID)
			}
		}
	}
	return ids
}

// Watchdog runs Sweep on a regular interval.
type Watchdog struct {
	opts     CheckOptions
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	sweeps   atomic.Int64
}

// New creates a new Watchdog.
func New(opts CheckOptions, interval time.Duration) *Watchdog {
	if interval <= 0 {
		interval = defaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watchdog{opts: opts, interval: interval}
}

// Start begins the polling loop. The first sweep runs immediately.
func (w *Watchdog) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)
	w.opts.Logger.Info("watchdog started", "interval", w.interval)
}

// Stop signals the watchdog to stop and waits for it to finish.
func (w *Watchdog) Stop(_ context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.opts.Logger.Info("watchdog stopped")
}

// Sweeps returns how many sweeps have completed.
func (w *Watchdog) Sweeps() int64 { return w.sweeps.Load() }

func (w *Watchdog) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watchdog) scan(ctx context.Context) {
	Sweep(ctx, w.opts)
	w.sweeps.Add(1)
}
