package types

import "time"

// Notification is a fire-and-forget UI instruction emitted after a committed
// transition.
type Notification struct {
	EventID          string           `json:"eventId"`
	Kind             NotificationKind `json:"kind"`
	InstanceID       int64            `json:"instanceId"`
	AlarmID          *int64           `json:"alarmId,omitempty"`
	From             State            `json:"from,omitempty"`
	To               State            `json:"to"`
	Label            string           `json:"label"`
	Ringtone         string           `json:"ringtone,omitempty"`
	Vibrate          bool             `json:"vibrate"`
	Flash            bool             `json:"flash"`
	IncreasingVolume bool             `json:"increasingVolume"`
	FireTime         time.Time        `json:"fireTime"`
	Timestamp        time.Time        `json:"timestamp"`
}

// WakeMessage is the payload the wake scheduler delivers for an instance.
type WakeMessage struct {
	InstanceID int64 `json:"instanceId"`
}
