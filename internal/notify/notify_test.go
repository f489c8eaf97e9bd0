package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/alarmd/internal/metrics"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

func sample() types.Notification {
	alarm := int64(3)
	return types.Notification{
		EventID:    "01JTEST0000000000000000000",
		Kind:       types.NotifyStartRinging,
		InstanceID: 42,
		AlarmID:    &alarm,
		From:       types.StateHighNotification,
		To:         types.StateFired,
		Label:      "Wake up",
		FireTime:   time.Date(2026, 5, 4, 7, 0, 0, 0, time.UTC),
		Timestamp:  time.Date(2026, 5, 4, 7, 0, 3, 0, time.UTC),
	}
}

type recordingSink struct {
	name string
	err  error
	got  []types.Notification
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Send(_ context.Context, n types.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestDispatcher_FailingSinkDoesNotBlockOthers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bad := &recordingSink{name: "bad", err: errors.New("boom")}
	good := &recordingSink{name: "good"}
	d := NewDispatcher(logger, bad, good)

	sent := metrics.NotificationsSent.Value()
	failed := metrics.NotificationsFailed.Value()
	d.Notify(context.Background(), sample())

	assert.Len(t, bad.got, 1)
	assert.Len(t, good.got, 1)
	assert.Equal(t, sent+1, metrics.NotificationsSent.Value())
	assert.Equal(t, failed+1, metrics.NotificationsFailed.Value())
	assert.Contains(t, buf.String(), "sink=bad")
}

func TestFromConfig_DefaultsToLogSink(t *testing.T) {
	d, err := FromConfig(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, d.Sinks(), 1)
	assert.Equal(t, "log", d.Sinks()[0].Name())
}

func TestFromConfig_UnknownType(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	_, err := FromConfig(context.Background(), []types.SinkConfig{{Type: "pager"}}, nil)
	assert.ErrorContains(t, err, "unknown sink type")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, s.Send(context.Background(), sample()))
	assert.Contains(t, buf.String(), `"kind":"START_RINGING"`)
	assert.Contains(t, buf.String(), `"instance":42`)
}

type mockSQS struct {
	sent []*sqs.SendMessageInput
}

func (m *mockSQS) SendMessage(_ context.Context, input *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.sent = append(m.sent, input)
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSSink_Send(t *testing.T) {
	m := &mockSQS{}
	s, err := NewSQSSink("https://sqs.us-east-1.amazonaws.com/123456789012/devices", WithSQSClient(m))
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), sample()))

	require.Len(t, m.sent, 1)
	assert.Nil(t, m.sent[0].MessageGroupId)
	assert.Equal(t, "START_RINGING", aws.ToString(m.sent[0].MessageAttributes["kind"].StringValue))

	var got types.Notification
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(m.sent[0].MessageBody)), &got))
	assert.Equal(t, int64(42), got.InstanceID)
	assert.Equal(t, types.StateFired, got.To)
}

func TestSQSSink_FIFOGroupsByInstance(t *testing.T) {
	m := &mockSQS{}
	s, err := NewSQSSink("https://sqs.us-east-1.amazonaws.com/123456789012/devices.fifo", WithSQSClient(m))
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), sample()))
	assert.Equal(t, "42", aws.ToString(m.sent[0].MessageGroupId))
	assert.Equal(t, "01JTEST0000000000000000000", aws.ToString(m.sent[0].MessageDeduplicationId))
}

func TestSQSSink_EmptyURL(t *testing.T) {
	_, err := NewSQSSink("", WithSQSClient(&mockSQS{}))
	assert.ErrorContains(t, err, "queue URL required")
}

type mockEventBridge struct {
	out  *eventbridge.PutEventsOutput
	puts []*eventbridge.PutEventsInput
}

func (m *mockEventBridge) PutEvents(_ context.Context, input *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	m.puts = append(m.puts, input)
	if m.out != nil {
		return m.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestEventBridgeSink_Send(t *testing.T) {
	m := &mockEventBridge{}
	s, err := NewEventBridgeSink("alarms", "", WithEventBridgeClient(m))
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), sample()))

	require.Len(t, m.puts, 1)
	e := m.puts[0].Entries[0]
	assert.Equal(t, "alarms", aws.ToString(e.EventBusName))
	assert.Equal(t, "alarmd", aws.ToString(e.Source))
	assert.Equal(t, DetailType, aws.ToString(e.DetailType))
	assert.Contains(t, aws.ToString(e.Detail), `"instanceId":42`)
}

func TestEventBridgeSink_FailedEntry(t *testing.T) {
	m := &mockEventBridge{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []ebtypes.PutEventsResultEntry{{
			ErrorCode:    aws.String("ThrottlingException"),
			ErrorMessage: aws.String("slow down"),
		}},
	}}
	s, err := NewEventBridgeSink("alarms", "custom", WithEventBridgeClient(m))
	require.NoError(t, err)
	assert.ErrorContains(t, s.Send(context.Background(), sample()), "ThrottlingException")
}

type mockCWL struct {
	missingStream bool
	puts          int
	created       []string
}

func (m *mockCWL) PutLogEvents(_ context.Context, input *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	m.puts++
	if m.missingStream {
		return nil, &cwltypes.ResourceNotFoundException{Message: aws.String("stream")}
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (m *mockCWL) CreateLogStream(_ context.Context, input *cloudwatchlogs.CreateLogStreamInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	m.created = append(m.created, aws.ToString(input.LogStreamName))
	m.missingStream = false
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func TestCloudWatchLogsSink_CreatesMissingStream(t *testing.T) {
	m := &mockCWL{missingStream: true}
	s, err := NewCloudWatchLogsSink("/alarmd/audit", "", WithCloudWatchLogsClient(m))
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), sample()))
	assert.Equal(t, []string{"instances"}, m.created)
	assert.Equal(t, 2, m.puts)

	require.NoError(t, s.Send(context.Background(), sample()))
	assert.Equal(t, 3, m.puts)
	assert.Len(t, m.created, 1)
}

func TestCloudWatchLogsSink_RequiresGroup(t *testing.T) {
	_, err := NewCloudWatchLogsSink("", "s", WithCloudWatchLogsClient(&mockCWL{}))
	assert.ErrorContains(t, err, "log group required")
}
