// Package notify delivers instance notifications to the configured sinks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/dwsmith1983/alarmd/internal/metrics"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Notifier receives notifications after a transition has been committed.
// Delivery is fire-and-forget: Notify never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, n types.Notification)
}

// Sink is a notification destination.
type Sink interface {
	Send(ctx context.Context, n types.Notification) error
	Name() string
}

// Dispatcher fans notifications out to sinks.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over sinks.
func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Sinks returns the configured sinks.
func (d *Dispatcher) Sinks() []Sink { return d.sinks }

// Notify sends n to every sink. Sink errors are logged and counted.
func (d *Dispatcher) Notify(ctx context.Context, n types.Notification) {
	for _, sink := range d.sinks {
		if err := sink.Send(ctx, n); err != nil {
			metrics.NotificationsFailed.Add(1)
			d.logger.Warn("notification delivery failed",
				"sink", sink.Name(), "instance", n.InstanceID, "kind", n.Kind, "error", err)
			continue
		}
		metrics.NotificationsSent.Add(1)
	}
}

// FromConfig builds a dispatcher from sink configs. AWS clients are created
// from the default credential chain on first use. No configs means a single
// log sink.
func FromConfig(ctx context.Context, configs []types.SinkConfig, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(configs) == 0 {
		return NewDispatcher(logger, NewLogSink(logger)), nil
	}

	loadAWS := sync.OnceValues(func() (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})

	var sinks []Sink
	for _, cfg := range configs {
		sink, err := newSink(cfg, logger, loadAWS)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		sinks = append(sinks, sink)
	}
	return NewDispatcher(logger, sinks...), nil
}

func newSink(cfg types.SinkConfig, logger *slog.Logger, loadAWS func() (aws.Config, error)) (Sink, error) {
	if cfg.Type == types.SinkLog {
		return NewLogSink(logger), nil
	}

	awsCfg, err := loadAWS()
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	switch cfg.Type {
	case types.SinkSQS:
		return NewSQSSink(cfg.QueueURL, WithSQSClient(newSQSClient(awsCfg)))
	case types.SinkEventBridge:
		return NewEventBridgeSink(cfg.BusName, cfg.Source, WithEventBridgeClient(newEventBridgeClient(awsCfg)))
	case types.SinkCloudWatchLogs:
		return NewCloudWatchLogsSink(cfg.LogGroup, cfg.LogStream, WithCloudWatchLogsClient(newCloudWatchLogsClient(awsCfg)))
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
