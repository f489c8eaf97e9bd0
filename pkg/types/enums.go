// Package types defines the public domain types for the alarmd instance lifecycle service.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// State represents the lifecycle state of an alarm instance.
type State string

// State values enumerate the closed set of instance lifecycle states.
const (
	StateSilent           State = "SILENT"
	StateLowNotification  State = "LOW_NOTIFICATION"
	StateHighNotification State = "HIGH_NOTIFICATION"
	StateFired            State = "FIRED"
	StateSnoozed          State = "SNOOZED"
	StateMissed           State = "MISSED"
	StateDismissed        State = "DISMISSED"
)

var allStates = []State{
	StateSilent,
	StateLowNotification,
	StateHighNotification,
	StateFired,
	StateSnoozed,
	StateMissed,
	StateDismissed,
}

// AllStates returns every valid state in lifecycle order.
func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// Valid reports whether s is one of the named states.
func (s State) Valid() bool {
	for _, v := range allStates {
		if s == v {
			return true
		}
	}
	return false
}

// ParseState converts a stored string into a State, rejecting unknown values.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown instance state %q", s)
	}
	return st, nil
}

// UnmarshalText rejects states outside the closed set when decoding JSON or YAML.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// TimeoutPolicy is the global auto-silence setting: a positive number of
// minutes, or one of the TimeoutNever / TimeoutAtRingtoneEnd sentinels.
type TimeoutPolicy int

// TimeoutPolicy sentinels.
const (
	TimeoutNever         TimeoutPolicy = -1
	TimeoutAtRingtoneEnd TimeoutPolicy = -2
)

// Valid reports whether p is a sentinel or a positive minute count.
func (p TimeoutPolicy) Valid() bool {
	return p == TimeoutNever || p == TimeoutAtRingtoneEnd || p > 0
}

func (p TimeoutPolicy) String() string {
	switch p {
	case TimeoutNever:
		return "never"
	case TimeoutAtRingtoneEnd:
		return "ringtone-end"
	default:
		return strconv.Itoa(int(p))
	}
}

// ParseTimeoutPolicy accepts "never", "ringtone-end" or a positive minute count.
func ParseTimeoutPolicy(s string) (TimeoutPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never":
		return TimeoutNever, nil
	case "ringtone-end", "at-ringtone-end":
		return TimeoutAtRingtoneEnd, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid timeout policy %q", s)
	}
	p := TimeoutPolicy(n)
	if !p.Valid() {
		return 0, fmt.Errorf("invalid timeout policy %q: minutes must be positive", s)
	}
	return p, nil
}

// MarshalText encodes the policy in the same form ParseTimeoutPolicy accepts.
func (p TimeoutPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a policy from config files and settings records.
func (p *TimeoutPolicy) UnmarshalText(b []byte) error {
	v, err := ParseTimeoutPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// NotificationKind classifies the side effect a transition asks the UI to perform.
type NotificationKind string

// NotificationKind values enumerate UI/notification side effects.
const (
	NotifyShowLow      NotificationKind = "SHOW_LOW_NOTIFICATION"
	NotifyEscalate     NotificationKind = "ESCALATE_NOTIFICATION"
	NotifyStartRinging NotificationKind = "START_RINGING"
	NotifyStopRinging  NotificationKind = "STOP_RINGING"
	NotifyShowSnoozed  NotificationKind = "SHOW_SNOOZED"
	NotifyShowMissed   NotificationKind = "SHOW_MISSED"
	NotifyClearMissed  NotificationKind = "CLEAR_MISSED"
	NotifyClearAll     NotificationKind = "CLEAR_NOTIFICATIONS"
)

// StoreType names a persistence backend.
type StoreType string

// StoreType values enumerate the supported instance store backends.
const (
	StoreDynamoDB StoreType = "dynamodb"
	StoreRedis    StoreType = "redis"
	StoreMemory   StoreType = "memory"
)

// SinkType names a notification sink.
type SinkType string

// SinkType values enumerate the supported notification sinks.
const (
	SinkLog            SinkType = "log"
	SinkSQS            SinkType = "sqs"
	SinkEventBridge    SinkType = "eventbridge"
	SinkCloudWatchLogs SinkType = "cloudwatchlogs"
)
