package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client used by CloudWatchLogsSink.
type CloudWatchLogsAPI interface {
	PutLogEvents(ctx context.Context, input *cloudwatchlogs.PutLogEventsInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogStream(ctx context.Context, input *cloudwatchlogs.CreateLogStreamInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// CloudWatchLogsSink appends notifications to an audit log stream.
type CloudWatchLogsSink struct {
	client CloudWatchLogsAPI
	group  string
	stream string
}

// CloudWatchLogsSinkOption configures a CloudWatchLogsSink.
type CloudWatchLogsSinkOption func(*CloudWatchLogsSink)

// WithCloudWatchLogsClient sets a custom CloudWatch Logs client (useful for testing).
func WithCloudWatchLogsClient(c CloudWatchLogsAPI) CloudWatchLogsSinkOption {
	return func(s *CloudWatchLogsSink) { s.client = c }
}

func newCloudWatchLogsClient(cfg aws.Config) CloudWatchLogsAPI { return cloudwatchlogs.NewFromConfig(cfg) }

// NewCloudWatchLogsSink creates an audit sink. An empty stream defaults to "instances".
func NewCloudWatchLogsSink(group, stream string, opts ...CloudWatchLogsSinkOption) (*CloudWatchLogsSink, error) {
	if group == "" {
		return nil, fmt.Errorf("log group required")
	}
	if stream == "" {
		stream = "instances"
	}
	s := &CloudWatchLogsSink{group: group, stream: stream}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		return nil, fmt.Errorf("CloudWatch Logs client required")
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *CloudWatchLogsSink) Name() string { return "cloudwatchlogs" }

// Send writes one log event. A missing stream is created and the put retried once.
func (s *CloudWatchLogsSink) Send(ctx context.Context, n types.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}
	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
		LogEvents: []cwltypes.InputLogEvent{{
			Message:   aws.String(string(data)),
			Timestamp: aws.Int64(n.Timestamp.UnixMilli()),
		}},
	}

	_, err = s.client.PutLogEvents(ctx, input)
	var nf *cwltypes.ResourceNotFoundException
	if errors.As(err, &nf) {
		if _, cerr := s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
			LogGroupName:  aws.String(s.group),
			LogStreamName: aws.String(s.stream),
		}); cerr != nil {
			var exists *cwltypes.ResourceAlreadyExistsException
			if !errors.As(cerr, &exists) {
				return fmt.Errorf("creating log stream %s: %w", s.stream, cerr)
			}
		}
		_, err = s.client.PutLogEvents(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("putting log event: %w", err)
	}
	return nil
}
