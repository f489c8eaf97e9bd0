package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// TestCreateGet verifies a created row reads back field for field.
func TestCreateGet(t *testing.T, b store.Backend) {
	ctx := context.Background()
	tone := "ct-bell"

	inst := newInstance(uniqueAlarm(), baseFire)
	inst.Label = "wake up"
	inst.Vibrate = true
	inst.IncreasingVolume = true
	inst.Ringtone = &tone

	id, err := b.Create(ctx, inst)
	require.NoError(t, err)
	assert.NotEqual(t, types.InvalidID, id)

	id2, err := b.Create(ctx, newInstance(inst.AlarmID, baseFire.Add(24*time.Hour)))
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	got, err := b.Get(ctx, id)
	require.NoError(t, err)
	inst.ID = id
	assert.Equal(t, inst, *got)

	_, err = b.Get(ctx, id2+1_000_000)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestReplaceNeverCreates verifies Replace overwrites but does not upsert.
func TestReplaceNeverCreates(t *testing.T, b store.Backend) {
	ctx := context.Background()

	inst := newInstance(uniqueAlarm(), baseFire)
	id, err := b.Create(ctx, inst)
	require.NoError(t, err)

	inst.ID = id
	inst.Label = "changed"
	inst.State = types.StateLowNotification
	require.NoError(t, b.Replace(ctx, inst))

	got, err := b.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Label)
	assert.Equal(t, types.StateLowNotification, got.State)

	ghost := newInstance(inst.AlarmID, baseFire)
	ghost.ID = id + 5_000_000
	err = b.Replace(ctx, ghost)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = b.Get(ctx, ghost.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestRemoveIdempotent verifies removal of present and absent rows.
func TestRemoveIdempotent(t *testing.T, b store.Backend) {
	ctx := context.Background()

	alarm := uniqueAlarm()
	id, err := b.Create(ctx, newInstance(alarm, baseFire))
	require.NoError(t, err)

	require.NoError(t, b.Remove(ctx, id))
	require.NoError(t, b.Remove(ctx, id))

	_, err = b.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rows, err := b.ListByAlarm(ctx, *alarm)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// TestListByAlarm verifies the alarm filter and id ordering.
func TestListByAlarm(t *testing.T, b store.Backend) {
	ctx := context.Background()

	alarm, other := uniqueAlarm(), uniqueAlarm()
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := b.Create(ctx, newInstance(alarm, baseFire.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := b.Create(ctx, newInstance(other, baseFire))
	require.NoError(t, err)
	_, err = b.Create(ctx, newInstance(nil, baseFire))
	require.NoError(t, err)

	rows, err := b.ListByAlarm(ctx, *alarm)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, ids[i], r.ID)
		assert.True(t, r.SameAlarm(alarm))
	}
}

// TestListByStateFollowsReplace verifies state indexes move with the row.
func TestListByStateFollowsReplace(t *testing.T, b store.Backend) {
	ctx := context.Background()

	inst := newInstance(uniqueAlarm(), baseFire)
	id, err := b.Create(ctx, inst)
	require.NoError(t, err)
	inst.ID = id

	assert.Contains(t, idsIn(t, b, types.StateSilent), id)

	inst.State = types.StateFired
	require.NoError(t, b.Replace(ctx, inst))
	assert.NotContains(t, idsIn(t, b, types.StateSilent), id)
	assert.Contains(t, idsIn(t, b, types.StateFired), id)

	require.NoError(t, b.Remove(ctx, id))
	assert.NotContains(t, idsIn(t, b, types.StateFired), id)
}

func idsIn(t *testing.T, b store.Backend, state types.State) []int64 {
	t.Helper()
	rows, err := b.ListByState(context.Background(), state)
	require.NoError(t, err)
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		assert.Equal(t, state, r.State)
		ids = append(ids, r.ID)
	}
	return ids
}
