package engine

import "github.com/dwsmith1983/alarmd/pkg/types"

// notificationKinds lists the UI side effects of a committed transition.
func notificationKinds(from, to types.State) []types.NotificationKind {
	switch to {
	case types.StateLowNotification:
		return []types.NotificationKind{types.NotifyShowLow}
	case types.StateHighNotification:
		return []types.NotificationKind{types.NotifyEscalate}
	case types.StateFired:
		return []types.NotificationKind{types.NotifyStartRinging}
	case types.StateSnoozed:
		return []types.NotificationKind{types.NotifyStopRinging, types.NotifyShowSnoozed}
	case types.StateMissed:
		return []types.NotificationKind{types.NotifyStopRinging, types.NotifyShowMissed}
	case types.StateDismissed:
		switch from {
		case types.StateFired:
			return []types.NotificationKind{types.NotifyStopRinging, types.NotifyClearAll}
		case types.StateMissed:
			return []types.NotificationKind{types.NotifyClearMissed}
		default:
			return []types.NotificationKind{types.NotifyClearAll}
		}
	}
	return nil
}
