package types

import (
	"errors"
	"fmt"
	"time"
)

// InvalidID marks an instance that has not been persisted yet.
const InvalidID int64 = -1

// ErrInvalidInstance is returned when an instance carries out-of-range calendar
// fields or an unknown state.
var ErrInvalidInstance = errors.New("invalid alarm instance")

// Instance is one materialized firing of an alarm. The fire time is kept as
// civil calendar fields so it survives timezone and DST changes between
// creation and firing.
type Instance struct {
	ID      int64  `json:"id"`
	AlarmID *int64 `json:"alarmId,omitempty"`

	Year   int `json:"year"`
	Month  int `json:"month"` // 1-12
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`

	Label                   string  `json:"label"`
	DismissWhenRingtoneEnds bool    `json:"dismissWhenRingtoneEnds"`
	SnoozeActionsEnabled    bool    `json:"snoozeActionsEnabled"`
	Vibrate                 bool    `json:"vibrate"`
	Flash                   bool    `json:"flash"`
	IncreasingVolume        bool    `json:"increasingVolume"`
	Ringtone                *string `json:"ringtone,omitempty"` // nil = follow the current default
	State                   State   `json:"state"`
}

// NewInstance returns an unpersisted SILENT instance firing at fire.
func NewInstance(fire time.Time, alarmID *int64) *Instance {
	inst := &Instance{
		ID:                   InvalidID,
		AlarmID:              alarmID,
		SnoozeActionsEnabled: true,
		State:                StateSilent,
	}
	inst.SetScheduledFireTime(fire)
	return inst
}

// Equal compares row identity, not field values.
func (i *Instance) Equal(other *Instance) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.ID == other.ID
}

// Clone returns a deep copy.
func (i *Instance) Clone() *Instance {
	c := *i
	if i.AlarmID != nil {
		v := *i.AlarmID
		c.AlarmID = &v
	}
	if i.Ringtone != nil {
		v := *i.Ringtone
		c.Ringtone = &v
	}
	return &c
}

// SameAlarm reports whether both instances reference the same alarm (or none).
func (i *Instance) SameAlarm(alarmID *int64) bool {
	if i.AlarmID == nil || alarmID == nil {
		return i.AlarmID == nil && alarmID == nil
	}
	return *i.AlarmID == *alarmID
}

// LabelOrDefault returns the label, or def when none was set.
func (i *Instance) LabelOrDefault(def string) string {
	if i.Label == "" {
		return def
	}
	return i.Label
}

// ScheduledFireTime rebuilds the fire instant in loc with seconds zeroed.
// A nil loc means time.Local.
func (i *Instance) ScheduledFireTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(i.Year, time.Month(i.Month), i.Day, i.Hour, i.Minute, 0, 0, loc)
}

// SetScheduledFireTime stores t's civil fields in t's own location,
// discarding seconds and below.
func (i *Instance) SetScheduledFireTime(t time.Time) {
	i.Year = t.Year()
	i.Month = int(t.Month())
	i.Day = t.Day()
	i.Hour = t.Hour()
	i.Minute = t.Minute()
}

// Validate checks the calendar fields are normalized and the state is known.
func (i *Instance) Validate() error {
	if i.Month < 1 || i.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidInstance, i.Month)
	}
	if i.Hour < 0 || i.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidInstance, i.Hour)
	}
	if i.Minute < 0 || i.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidInstance, i.Minute)
	}
	if i.Day < 1 || i.Day > daysIn(time.Month(i.Month), i.Year) {
		return fmt.Errorf("%w: day %d out of range for %04d-%02d", ErrInvalidInstance, i.Day, i.Year, i.Month)
	}
	if !i.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidInstance, i.State)
	}
	return nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (i *Instance) String() string {
	alarm := "none"
	if i.AlarmID != nil {
		alarm = fmt.Sprintf("%d", *i.AlarmID)
	}
	return fmt.Sprintf("Instance{id=%d alarm=%s at=%04d-%02d-%02d %02d:%02d state=%s}",
		i.ID, alarm, i.Year, i.Month, i.Day, i.Hour, i.Minute, i.State)
}
