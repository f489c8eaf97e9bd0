package engine

import (
	"time"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// wakeTime is when inst's next time-based transition becomes due. ok is
// false for DISMISSED and for FIRED instances that never time out.
func wakeTime(inst *types.Instance, snap snapshot) (time.Time, bool) {
	s := snap.settings
	switch inst.State {
	case types.StateSilent:
		return inst.NotificationTime(snap.loc, s.ReminderLeadMinutes), true
	case types.StateLowNotification:
		return inst.HighNotificationTime(snap.loc, s.EffectiveHighLead()), true
	case types.StateHighNotification, types.StateSnoozed:
		return inst.ScheduledFireTime(snap.loc), true
	case types.StateFired:
		return inst.TimeoutTime(snap.loc, s.Timeout, snap.duration)
	case types.StateMissed:
		return inst.MissedExpiryTime(snap.loc), true
	default:
		return time.Time{}, false
	}
}

// due reports whether inst's next time-based transition should apply at now.
func due(inst *types.Instance, snap snapshot) bool {
	at, ok := wakeTime(inst, snap)
	return ok && !snap.now.Before(at)
}
