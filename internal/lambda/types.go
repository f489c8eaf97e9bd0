// Package lambda provides shared types and initialization for Lambda handlers.
package lambda

import (
	"github.com/aws/aws-lambda-go/events"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// WakeEvent is the input to the wake Lambda: a batch of types.WakeMessage
// bodies delivered by the scheduler through SQS.
type WakeEvent = events.SQSEvent

// WakeResponse reports which messages should be redelivered.
type WakeResponse = events.SQSEventResponse

// Action names accepted by the action Lambda.
const (
	ActionSchedule      = "schedule"
	ActionDismiss       = "dismiss"
	ActionSnooze        = "snooze"
	ActionRingtoneEnded = "ringtoneEnded"
	ActionDeleteOthers  = "deleteOthers"
	ActionGet           = "get"
	ActionNextUpcoming  = "nextUpcoming"
)

// Action results.
const (
	ResultOK    = "ok"
	ResultSkip  = "skip"
	ResultError = "error"
)

// ActionRequest is the input to the action Lambda.
type ActionRequest struct {
	Action         string          `json:"action"`
	InstanceID     int64           `json:"instanceId,omitempty"`
	AlarmID        int64           `json:"alarmId,omitempty"`
	KeepInstanceID int64           `json:"keepInstanceId,omitempty"`
	Instance       *types.Instance `json:"instance,omitempty"`
}

// ActionResponse is the output of the action Lambda.
type ActionResponse struct {
	Action   string          `json:"action"`
	Result   string          `json:"result"`
	Instance *types.Instance `json:"instance,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// SweepResponse is the output of the watchdog Lambda.
type SweepResponse struct {
	Scanned  int `json:"scanned"`
	Advanced int `json:"advanced"`
	Idle     int `json:"idle"`
	Failed   int `json:"failed"`
}
