package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/alarmd/internal/config"
	"github.com/dwsmith1983/alarmd/internal/engine"
	"github.com/dwsmith1983/alarmd/internal/notify"
	"github.com/dwsmith1983/alarmd/internal/ringtone"
	"github.com/dwsmith1983/alarmd/internal/scheduler"
	"github.com/dwsmith1983/alarmd/internal/server"
	"github.com/dwsmith1983/alarmd/internal/settings"
	"github.com/dwsmith1983/alarmd/internal/store"
	ddbstore "github.com/dwsmith1983/alarmd/internal/store/dynamodb"
	"github.com/dwsmith1983/alarmd/internal/telemetry"
	"github.com/dwsmith1983/alarmd/internal/watchdog"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

const (
	defaultAddr          = ":8080"
	defaultSweepInterval = time.Minute
	shutdownTimeout      = 15 * time.Second
)

// NewServeCmd creates the serve command: the HTTP API plus a periodic
// watchdog sweep that stands in for the wake scheduler when none is
// configured.
func NewServeCmd(opts *Options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the alarmd HTTP API and watchdog sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.LogLevel)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.ConfigDir, addr, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	return cmd
}

// runServe starts every component and blocks until ctx is cancelled or the
// HTTP server fails.
func runServe(ctx context.Context, configDir, addr string, logger *slog.Logger) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	backend, err := config.NewBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	if err := backend.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}
	defer func() {
		if err := backend.Stop(context.Background()); err != nil {
			logger.Warn("store shutdown failed", "error", err)
		}
	}()

	eng, err := buildEngine(ctx, cfg, backend, logger)
	if err != nil {
		return err
	}

	sweepOpts, interval, err := sweepOptions(cfg)
	if err != nil {
		return err
	}
	sweepOpts.Store = eng.Repository()
	sweepOpts.Engine = eng
	sweepOpts.Logger = logger
	wd := watchdog.New(sweepOpts, interval)
	wd.Start(ctx)
	defer wd.Stop(context.Background())

	srv := server.New(listenAddr(cfg, addr), eng, serverOptions(cfg, logger))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(sctx)
}

func buildEngine(ctx context.Context, cfg *types.ProjectConfig, backend store.Backend, logger *slog.Logger) (*engine.Engine, error) {
	loc, err := settings.Location(cfg.Settings)
	if err != nil {
		return nil, err
	}

	var wakes scheduler.WakeScheduler = scheduler.Nop{}
	if cfg.Scheduler != nil {
		wakes, err = scheduler.NewEventBridge(ctx, *cfg.Scheduler)
		if err != nil {
			return nil, fmt.Errorf("creating wake scheduler: %w", err)
		}
	}

	notifier, err := notify.FromConfig(ctx, cfg.Sinks, logger)
	if err != nil {
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	lookup, err := ringtone.FromConfig(ctx, cfg.Ringtone, nil)
	if err != nil {
		return nil, fmt.Errorf("creating ringtone lookup: %w", err)
	}

	var src settings.Source = settings.Static(cfg.Settings)
	if ddb, ok := backend.(*ddbstore.Backend); ok {
		src = ddb.Settings(cfg.Settings)
	}

	repo := store.NewInstances(backend, wakes, store.WithLogger(logger), store.WithLocation(loc))
	return engine.New(repo, wakes, notifier, src,
		engine.WithLogger(logger),
		engine.WithDurationLookup(lookup),
	), nil
}

// sweepOptions reads the sweep tuning from cfg. The caller supplies the
// store, engine and logger.
func sweepOptions(cfg *types.ProjectConfig) (watchdog.CheckOptions, time.Duration, error) {
	var opts watchdog.CheckOptions
	interval := defaultSweepInterval
	if sw := cfg.Sweep; sw != nil {
		opts.Concurrency = sw.Concurrency
		wait, err := config.ParseDuration(sw.LockWait, 0)
		if err != nil {
			return opts, 0, err
		}
		opts.LockWait = wait
		if interval, err = config.ParseDuration(sw.Interval, defaultSweepInterval); err != nil {
			return opts, 0, err
		}
	}
	return opts, interval, nil
}

func listenAddr(cfg *types.ProjectConfig, flagAddr string) string {
	switch {
	case flagAddr != "":
		return flagAddr
	case cfg.Server != nil && cfg.Server.Addr != "":
		return cfg.Server.Addr
	default:
		return defaultAddr
	}
}

func serverOptions(cfg *types.ProjectConfig, logger *slog.Logger) server.Options {
	o := server.Options{Logger: logger}
	if s := cfg.Server; s != nil {
		o.APIKey = s.APIKey
		o.MaxBodyBytes = s.MaxBodyBytes
		o.AllowedOrigins = s.AllowedOrigins
	}
	return o
}
