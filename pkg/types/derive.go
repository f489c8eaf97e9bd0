package types

import "time"

// MissedTimeToLive is how long a missed-alarm notification stays relevant
// after the original fire time.
const MissedTimeToLive = 12 * time.Hour

// RingtoneDurationFunc returns the play length of a ringtone reference. A nil
// reference means the current default. Errors are treated as zero duration.
type RingtoneDurationFunc func(ref *string) (time.Duration, error)

// NotificationTime is when the low-priority reminder appears.
func (i *Instance) NotificationTime(loc *time.Location, reminderLeadMinutes int) time.Time {
	return i.ScheduledFireTime(loc).Add(-time.Duration(reminderLeadMinutes) * time.Minute)
}

// HighNotificationTime is when the reminder escalates ahead of firing.
func (i *Instance) HighNotificationTime(loc *time.Location, leadMinutes int) time.Time {
	return i.ScheduledFireTime(loc).Add(-time.Duration(leadMinutes) * time.Minute)
}

// MissedExpiryTime is when a missed notification should be cleared.
func (i *Instance) MissedExpiryTime(loc *time.Location) time.Time {
	return i.ScheduledFireTime(loc).Add(MissedTimeToLive)
}

// UsesRingtoneEndTimeout reports whether the timeout is derived from the
// ringtone length. The per-instance flag wins over any global policy.
func (i *Instance) UsesRingtoneEndTimeout(policy TimeoutPolicy) bool {
	return i.DismissWhenRingtoneEnds || policy == TimeoutAtRingtoneEnd
}

// TimeoutTime returns when a firing instance should auto-silence and become
// missed. ok is false when the instance never times out.
func (i *Instance) TimeoutTime(loc *time.Location, policy TimeoutPolicy, duration RingtoneDurationFunc) (t time.Time, ok bool) {
	fire := i.ScheduledFireTime(loc)
	switch {
	case i.UsesRingtoneEndTimeout(policy):
		var d time.Duration
		if duration != nil {
			if v, err := duration(i.Ringtone); err == nil && v > 0 {
				d = v
			}
		}
		return fire.Add(d), true
	case policy == TimeoutNever:
		return time.Time{}, false
	case policy > 0:
		return fire.Add(time.Duration(policy) * time.Minute), true
	default:
		return time.Time{}, false
	}
}
