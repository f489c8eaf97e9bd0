package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	schedtypes "github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/oklog/ulid/v2"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// MinLead is the earliest a wake can be placed. Wakes due sooner, or already
// past, are pushed out to now + MinLead.
const MinLead = time.Minute

// SchedulerAPI is the subset of the EventBridge Scheduler client used by EventBridge.
type SchedulerAPI interface {
	CreateSchedule(ctx context.Context, input *scheduler.CreateScheduleInput, opts ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error)
	UpdateSchedule(ctx context.Context, input *scheduler.UpdateScheduleInput, opts ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error)
	DeleteSchedule(ctx context.Context, input *scheduler.DeleteScheduleInput, opts ...func(*scheduler.Options)) (*scheduler.DeleteScheduleOutput, error)
}

// EventBridge schedules wakes as one-time EventBridge Scheduler schedules
// that deliver a types.WakeMessage to the wake queue.
type EventBridge struct {
	client    SchedulerAPI
	groupName string
	targetARN string
	roleARN   string
	now       func() time.Time
}

// Option configures an EventBridge scheduler.
type Option func(*EventBridge)

// WithClient sets a custom Scheduler client (useful for testing).
func WithClient(c SchedulerAPI) Option {
	return func(e *EventBridge) { e.client = c }
}

// WithClock overrides the time source used to clamp past wakes.
func WithClock(now func() time.Time) Option {
	return func(e *EventBridge) { e.now = now }
}

// NewEventBridge creates a wake scheduler from cfg.
func NewEventBridge(ctx context.Context, cfg types.SchedulerConfig, opts ...Option) (*EventBridge, error) {
	if cfg.TargetARN == "" {
		return nil, fmt.Errorf("wake target ARN required")
	}
	if cfg.RoleARN == "" {
		return nil, fmt.Errorf("scheduler role ARN required")
	}
	e := &EventBridge{
		groupName: cfg.GroupName,
		targetARN: cfg.TargetARN,
		roleARN:   cfg.RoleARN,
		now:       time.Now,
	}
	if e.groupName == "" {
		e.groupName = "default"
	}
	for _, o := range opts {
		o(e)
	}
	if e.client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		e.client = scheduler.NewFromConfig(awsCfg)
	}
	return e, nil
}

// ScheduleName returns the schedule name used for an instance's wake.
func ScheduleName(instanceID int64) string {
	return fmt.Sprintf("alarm-instance-%d", instanceID)
}

// atExpression renders a one-time schedule expression in UTC.
func atExpression(t time.Time) string {
	return "at(" + t.UTC().Format("2006-01-02T15:04:05") + ")"
}

// RegisterWake creates the instance's schedule, or updates it when one is
// already pending.
func (e *EventBridge) RegisterWake(ctx context.Context, instanceID int64, at time.Time) error {
	if earliest := e.now().Add(MinLead); at.Before(earliest) {
		at = earliest
	}
	input, err := json.Marshal(types.WakeMessage{InstanceID: instanceID})
	if err != nil {
		return fmt.Errorf("marshaling wake message: %w", err)
	}

	name := ScheduleName(instanceID)
	expr := atExpression(at)
	target := &schedtypes.Target{
		Arn:     aws.String(e.targetARN),
		RoleArn: aws.String(e.roleARN),
		Input:   aws.String(string(input)),
	}
	window := &schedtypes.FlexibleTimeWindow{Mode: schedtypes.FlexibleTimeWindowModeOff}

	_, err = e.client.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:                       aws.String(name),
		GroupName:                  aws.String(e.groupName),
		ScheduleExpression:         aws.String(expr),
		ScheduleExpressionTimezone: aws.String("UTC"),
		FlexibleTimeWindow:         window,
		Target:                     target,
		ActionAfterCompletion:      schedtypes.ActionAfterCompletionDelete,
		ClientToken:                aws.String(ulid.Make().String()),
	})
	if err == nil {
		return nil
	}

	var conflict *schedtypes.ConflictException
	if !errors.As(err, &conflict) {
		return fmt.Errorf("creating schedule %s: %w", name, err)
	}

	_, err = e.client.UpdateSchedule(ctx, &scheduler.UpdateScheduleInput{
		Name:                       aws.String(name),
		GroupName:                  aws.String(e.groupName),
		ScheduleExpression:         aws.String(expr),
		ScheduleExpressionTimezone: aws.String("UTC"),
		FlexibleTimeWindow:         window,
		Target:                     target,
		ActionAfterCompletion:      schedtypes.ActionAfterCompletionDelete,
		ClientToken:                aws.String(ulid.Make().String()),
	})
	if err != nil {
		return fmt.Errorf("updating schedule %s: %w", name, err)
	}
	return nil
}

// UnregisterWake deletes the instance's schedule. A schedule that already
// fired and was cleaned up is not an error.
func (e *EventBridge) UnregisterWake(ctx context.Context, instanceID int64) error {
	name := ScheduleName(instanceID)
	_, err := e.client.DeleteSchedule(ctx, &scheduler.DeleteScheduleInput{
		Name:        aws.String(name),
		GroupName:   aws.String(e.groupName),
		ClientToken: aws.String(ulid.Make().String()),
	})
	if err != nil {
		var nf *schedtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil
		}
		return fmt.Errorf("deleting schedule %s: %w", name, err)
	}
	return nil
}
