package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// DetailType is the EventBridge detail-type of instance notifications.
const DetailType = "AlarmInstanceStateChanged"

const defaultSource = "alarmd"

// EventBridgeAPI is the subset of the EventBridge client used by EventBridgeSink.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, input *eventbridge.PutEventsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeSink publishes notifications to an event bus.
type EventBridgeSink struct {
	client  EventBridgeAPI
	busName string
	source  string
}

// EventBridgeSinkOption configures an EventBridgeSink.
type EventBridgeSinkOption func(*EventBridgeSink)

// WithEventBridgeClient sets a custom EventBridge client (useful for testing).
func WithEventBridgeClient(c EventBridgeAPI) EventBridgeSinkOption {
	return func(s *EventBridgeSink) { s.client = c }
}

func newEventBridgeClient(cfg aws.Config) EventBridgeAPI { return eventbridge.NewFromConfig(cfg) }

// NewEventBridgeSink creates a sink for busName. An empty source defaults to "alarmd".
func NewEventBridgeSink(busName, source string, opts ...EventBridgeSinkOption) (*EventBridgeSink, error) {
	if busName == "" {
		return nil, fmt.Errorf("event bus name required")
	}
	if source == "" {
		source = defaultSource
	}
	s := &EventBridgeSink{busName: busName, source: source}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		return nil, fmt.Errorf("EventBridge client required")
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *EventBridgeSink) Name() string { return "eventbridge" }

// Send puts one event per notification.
func (s *EventBridgeSink) Send(ctx context.Context, n types.Notification) error {
	detail, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	out, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: aws.String(s.busName),
			Source:       aws.String(s.source),
			DetailType:   aws.String(DetailType),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(n.Timestamp),
		}},
	})
	if err != nil {
		return fmt.Errorf("putting event: %w", err)
	}
	if out.FailedEntryCount > 0 && len(out.Entries) > 0 {
		e := out.Entries[0]
		return fmt.Errorf("event rejected: %s: %s", aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
	}
	return nil
}
