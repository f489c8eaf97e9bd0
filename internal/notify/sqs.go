package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// SQSAPI is the subset of the SQS client used by SQSSink.
type SQSAPI interface {
	SendMessage(ctx context.Context, input *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink sends notifications to the device command queue.
type SQSSink struct {
	client   SQSAPI
	queueURL string
	fifo     bool
}

// SQSSinkOption configures an SQSSink.
type SQSSinkOption func(*SQSSink)

// WithSQSClient sets a custom SQS client (useful for testing).
func WithSQSClient(c SQSAPI) SQSSinkOption {
	return func(s *SQSSink) { s.client = c }
}

func newSQSClient(cfg aws.Config) SQSAPI { return sqs.NewFromConfig(cfg) }

// NewSQSSink creates a new SQS sink. FIFO queues are detected by their
// ".fifo" suffix and receive per-instance message groups.
func NewSQSSink(queueURL string, opts ...SQSSinkOption) (*SQSSink, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("SQS queue URL required")
	}
	s := &SQSSink{queueURL: queueURL, fifo: strings.HasSuffix(queueURL, ".fifo")}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		return nil, fmt.Errorf("SQS client required")
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *SQSSink) Name() string { return "sqs" }

// Send enqueues the notification as JSON.
func (s *SQSSink) Send(ctx context.Context, n types.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(n.Kind))},
		},
	}
	if s.fifo {
		input.MessageGroupId = aws.String(strconv.FormatInt(n.InstanceID, 10))
		input.MessageDeduplicationId = aws.String(n.EventID)
	}
	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sending to SQS: %w", err)
	}
	return nil
}
