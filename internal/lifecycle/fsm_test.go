package lifecycle

import (
	"testing"

	"github.com/dwsmith1983/alarmd/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from  types.State
		to    types.State
		valid bool
	}{
		{types.StateSilent, types.StateLowNotification, true},
		{types.StateSilent, types.StateDismissed, true},
		{types.StateSilent, types.StateFired, false},
		{types.StateLowNotification, types.StateHighNotification, true},
		{types.StateLowNotification, types.StateSilent, false},
		{types.StateHighNotification, types.StateFired, true},
		{types.StateHighNotification, types.StateSnoozed, false},
		{types.StateFired, types.StateMissed, true},
		{types.StateFired, types.StateSnoozed, true},
		{types.StateFired, types.StateDismissed, true},
		{types.StateFired, types.StateHighNotification, false},
		{types.StateSnoozed, types.StateFired, true},
		{types.StateSnoozed, types.StateMissed, false},
		{types.StateMissed, types.StateDismissed, true},
		{types.StateMissed, types.StateFired, false},
		{types.StateDismissed, types.StateFired, false},
		{types.StateDismissed, types.StateSilent, false},
		{types.State("BOGUS"), types.StateDismissed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.valid, CanTransition(tt.from, tt.to))
			err := Transition(tt.from, tt.to)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestEveryNonTerminalCanBeDismissed(t *testing.T) {
	for _, s := range NonTerminal() {
		assert.True(t, CanTransition(s, types.StateDismissed), s)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(types.StateDismissed))
	assert.False(t, IsTerminal(types.StateSilent))
	assert.False(t, IsTerminal(types.StateFired))
	assert.False(t, IsTerminal(types.StateMissed))
	assert.Len(t, NonTerminal(), len(types.AllStates())-1)
}

func TestNextTimed(t *testing.T) {
	chain := []types.State{
		types.StateSilent,
		types.StateLowNotification,
		types.StateHighNotification,
		types.StateFired,
		types.StateMissed,
		types.StateDismissed,
	}
	for i := 0; i < len(chain)-1; i++ {
		next, ok := NextTimed(chain[i])
		assert.True(t, ok)
		assert.Equal(t, chain[i+1], next)
		assert.True(t, CanTransition(chain[i], next))
	}

	next, ok := NextTimed(types.StateSnoozed)
	assert.True(t, ok)
	assert.Equal(t, types.StateFired, next)

	_, ok = NextTimed(types.StateDismissed)
	assert.False(t, ok)
}
