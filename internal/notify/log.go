package notify

import (
	"context"
	"log/slog"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Name returns the sink identifier.
func (s *LogSink) Name() string { return "log" }

// Send logs the notification.
func (s *LogSink) Send(ctx context.Context, n types.Notification) error {
	s.logger.InfoContext(ctx, "notification",
		"eventId", n.EventID,
		"kind", n.Kind,
		"instance", n.InstanceID,
		"from", n.From,
		"to", n.To,
		"label", n.Label,
		"fireTime", n.FireTime,
	)
	return nil
}
