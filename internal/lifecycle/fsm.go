// Package lifecycle implements the alarm instance state machine.
package lifecycle

import (
	"fmt"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Transition table: from -> allowed tos
var validTransitions = map[types.State][]types.State{
	types.StateSilent:           {types.StateLowNotification, types.StateDismissed},
	types.StateLowNotification:  {types.StateHighNotification, types.StateDismissed},
	types.StateHighNotification: {types.StateFired, types.StateDismissed},
	types.StateFired:            {types.StateMissed, types.StateDismissed, types.StateSnoozed},
	types.StateSnoozed:          {types.StateFired, types.StateDismissed},
	types.StateMissed:           {types.StateDismissed},
	types.StateDismissed:        {},
}

// Time-driven successor of each state. Dismiss and snooze are user events
// and never appear here.
var timedTransitions = map[types.State]types.State{
	types.StateSilent:           types.StateLowNotification,
	types.StateLowNotification:  types.StateHighNotification,
	types.StateHighNotification: types.StateFired,
	types.StateSnoozed:          types.StateFired,
	types.StateFired:            types.StateMissed,
	types.StateMissed:           types.StateDismissed,
}

// CanTransition checks if moving an instance from one state to another is valid.
func CanTransition(from, to types.State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates the move, returning an error if it is not in the table.
func Transition(from, to types.State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminal returns true if the state ends the instance's active lifecycle.
func IsTerminal(s types.State) bool {
	return s == types.StateDismissed
}

// NextTimed returns the state reached when the current state's deadline passes.
func NextTimed(s types.State) (types.State, bool) {
	next, ok := timedTransitions[s]
	return next, ok
}

// NonTerminal lists the states a recovery sweep must re-evaluate.
func NonTerminal() []types.State {
	var out []types.State
	for _, s := range types.AllStates() {
		if !IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}
