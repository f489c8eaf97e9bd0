package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

type wakeRecorder struct {
	mu   sync.Mutex
	ids  []int64
	fail error
}

func (w *wakeRecorder) UnregisterWake(_ context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids = append(w.ids, id)
	return w.fail
}

// TestInsertCollapsesDuplicates verifies two inserts of the same alarm and
// fire time leave one row and the second caller adopts the first id.
func TestInsertCollapsesDuplicates(t *testing.T, b store.Backend) {
	ctx := context.Background()
	repo := store.NewInstances(b, nil, store.WithLocation(time.UTC))
	alarm := uniqueAlarm()

	first := types.NewInstance(baseFire, alarm)
	require.NoError(t, repo.Insert(ctx, first))
	require.NotEqual(t, types.InvalidID, first.ID)

	second := types.NewInstance(baseFire.Add(20*time.Second), alarm)
	second.Label = "last write wins"
	require.NoError(t, repo.Insert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	rows, err := repo.GetByAlarmID(ctx, *alarm)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "last write wins", rows[0].Label)

	third := types.NewInstance(baseFire.Add(time.Minute), alarm)
	require.NoError(t, repo.Insert(ctx, third))
	assert.NotEqual(t, first.ID, third.ID)
}

// TestConcurrentInsertCollapses races inserts of one (alarm, time) pair.
func TestConcurrentInsertCollapses(t *testing.T, b store.Backend) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	repo := store.NewInstances(b, nil, store.WithLocation(time.UTC))
	alarm := uniqueAlarm()

	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst := types.NewInstance(baseFire, alarm)
			if assert.NoError(t, repo.Insert(ctx, inst)) {
				ids[i] = inst.ID
			}
		}(i)
	}
	wg.Wait()

	rows, err := repo.GetByAlarmID(ctx, *alarm)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	for _, id := range ids {
		assert.Equal(t, rows[0].ID, id)
	}
}

// TestDeleteOtherInstances verifies only the kept row survives and every
// other row had its wake unregistered.
func TestDeleteOtherInstances(t *testing.T, b store.Backend) {
	ctx := context.Background()
	wakes := &wakeRecorder{}
	repo := store.NewInstances(b, wakes, store.WithLocation(time.UTC))
	alarm := uniqueAlarm()

	var all []int64
	for i := 0; i < 4; i++ {
		inst := types.NewInstance(baseFire.Add(time.Duration(i)*24*time.Hour), alarm)
		require.NoError(t, repo.Insert(ctx, inst))
		all = append(all, inst.ID)
	}
	keep := all[2]

	require.NoError(t, repo.DeleteOtherInstances(ctx, *alarm, keep))

	rows, err := repo.GetByAlarmID(ctx, *alarm)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, keep, rows[0].ID)

	assert.ElementsMatch(t, []int64{all[0], all[1], all[3]}, wakes.ids)
}

// TestNextUpcoming verifies the earliest fire time wins.
func TestNextUpcoming(t *testing.T, b store.Backend) {
	ctx := context.Background()
	repo := store.NewInstances(b, nil, store.WithLocation(time.UTC))
	alarm := uniqueAlarm()

	_, err := repo.GetNextUpcomingByAlarmID(ctx, *alarm)
	assert.ErrorIs(t, err, store.ErrNotFound)

	late := types.NewInstance(baseFire.Add(48*time.Hour), alarm)
	early := types.NewInstance(baseFire, alarm)
	mid := types.NewInstance(baseFire.Add(24*time.Hour), alarm)
	for _, inst := range []*types.Instance{late, early, mid} {
		require.NoError(t, repo.Insert(ctx, inst))
	}

	next, err := repo.GetNextUpcomingByAlarmID(ctx, *alarm)
	require.NoError(t, err)
	assert.Equal(t, early.ID, next.ID)
}
