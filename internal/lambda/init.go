package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dwsmith1983/alarmd/internal/config"
	"github.com/dwsmith1983/alarmd/internal/engine"
	"github.com/dwsmith1983/alarmd/internal/notify"
	"github.com/dwsmith1983/alarmd/internal/ringtone"
	"github.com/dwsmith1983/alarmd/internal/scheduler"
	"github.com/dwsmith1983/alarmd/internal/settings"
	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/internal/store/dynamodb"
	"github.com/dwsmith1983/alarmd/internal/telemetry"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Deps holds shared dependencies for Lambda handlers.
type Deps struct {
	Backend          store.Backend
	Repo             *store.Instances
	Engine           *engine.Engine
	Logger           *slog.Logger
	SweepConcurrency int
	Shutdown         telemetry.ShutdownFunc
}

// Components are the collaborators Assemble wires together.
type Components struct {
	Backend  store.Backend
	Wakes    scheduler.WakeScheduler
	Notifier notify.Notifier
	Settings settings.Source
	Lookup   ringtone.DurationLookup
	Location string // IANA zone fire times are interpreted in; empty = time.Local
	Logger   *slog.Logger
}

// Assemble builds the repository and engine over c.
func Assemble(c Components) (*Deps, error) {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	loc, err := settings.Location(types.Settings{Timezone: c.Location})
	if err != nil {
		return nil, err
	}
	repo := store.NewInstances(c.Backend, c.Wakes,
		store.WithLogger(c.Logger),
		store.WithLocation(loc),
	)
	eng := engine.New(repo, c.Wakes, c.Notifier, c.Settings,
		engine.WithLogger(c.Logger),
		engine.WithDurationLookup(c.Lookup),
	)
	return &Deps{
		Backend:  c.Backend,
		Repo:     repo,
		Engine:   eng,
		Logger:   c.Logger,
		Shutdown: func(context.Context) error { return nil },
	}, nil
}

// Init creates shared dependencies from environment variables.
// Reads: TABLE_NAME, AWS_REGION, LOG_LEVEL, ALARM_TIMEZONE, DEFAULT_RINGTONE,
// SCHEDULE_GROUP, WAKE_QUEUE_ARN, SCHEDULER_ROLE_ARN, DEVICE_QUEUE_URL,
// EVENT_BUS_NAME, EVENT_SOURCE, AUDIT_LOG_GROUP, AUDIT_LOG_STREAM,
// RINGTONE_DURATIONS, RINGTONE_PROBE_FUNCTION, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_SERVICE_NAME, SWEEP_CONCURRENCY.
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(os.Getenv("LOG_LEVEL")),
	}))

	tableName := os.Getenv("TABLE_NAME")
	region := os.Getenv("AWS_REGION")
	if tableName == "" {
		return nil, fmt.Errorf("TABLE_NAME environment variable required")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION environment variable required")
	}
	concurrency, err := envInt("SWEEP_CONCURRENCY", 0)
	if err != nil {
		return nil, err
	}
	durations, err := parseDurations(os.Getenv("RINGTONE_DURATIONS"))
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, &types.TelemetryConfig{
		ServiceName: envOrDefault("OTEL_SERVICE_NAME", "alarmd"),
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	backend, err := dynamodb.New(ctx, &dynamodb.Config{TableName: tableName, Region: region})
	if err != nil {
		return nil, fmt.Errorf("creating DynamoDB backend: %w", err)
	}
	backend.SetLogger(logger)

	fallback := fallbackSettings()

	var wakes scheduler.WakeScheduler = scheduler.Nop{}
	if target := os.Getenv("WAKE_QUEUE_ARN"); target != "" {
		wakes, err = scheduler.NewEventBridge(ctx, types.SchedulerConfig{
			GroupName: os.Getenv("SCHEDULE_GROUP"),
			TargetARN: target,
			RoleARN:   os.Getenv("SCHEDULER_ROLE_ARN"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating wake scheduler: %w", err)
		}
	} else {
		logger.Warn("WAKE_QUEUE_ARN not set, relying on the watchdog sweep for wakes")
	}

	notifier, err := notify.FromConfig(ctx, sinksFromEnv(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	lookup, err := ringtone.FromConfig(ctx, &types.RingtoneConfig{
		Durations:     durations,
		ProbeFunction: os.Getenv("RINGTONE_PROBE_FUNCTION"),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating ringtone lookup: %w", err)
	}

	deps, err := Assemble(Components{
		Backend:  backend,
		Wakes:    wakes,
		Notifier: notifier,
		Settings: backend.Settings(fallback),
		Lookup:   lookup,
		Location: fallback.Timezone,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	deps.SweepConcurrency = concurrency
	deps.Shutdown = shutdown
	return deps, nil
}

// sinksFromEnv returns one sink per configured destination, always
// including the log sink.
// fallbackSettings are used when the settings item is missing or unreadable.
func fallbackSettings() types.Settings {
	s := types.DefaultSettings()
	s.DefaultRingtone = os.Getenv("DEFAULT_RINGTONE")
	s.Timezone = os.Getenv("ALARM_TIMEZONE")
	return s
}

func sinksFromEnv() []types.SinkConfig {
	sinks := []types.SinkConfig{{Type: types.SinkLog}}
	if url := os.Getenv("DEVICE_QUEUE_URL"); url != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkSQS, QueueURL: url})
	}
	if bus := os.Getenv("EVENT_BUS_NAME"); bus != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkEventBridge, BusName: bus, Source: os.Getenv("EVENT_SOURCE")})
	}
	if group := os.Getenv("AUDIT_LOG_GROUP"); group != "" {
		sinks = append(sinks, types.SinkConfig{Type: types.SinkCloudWatchLogs, LogGroup: group, LogStream: os.Getenv("AUDIT_LOG_STREAM")})
	}
	return sinks
}
