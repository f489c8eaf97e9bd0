// Package storetest provides shared conformance tests for store.Backend
// implementations. Call RunAll from a test function to verify a backend
// satisfies the full behavioral contract.
package storetest

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// RunAll runs the complete backend conformance suite as subtests.
func RunAll(t *testing.T, b store.Backend) {
	t.Helper()

	t.Run("CreateGet", func(t *testing.T) { TestCreateGet(t, b) })
	t.Run("ReplaceNeverCreates", func(t *testing.T) { TestReplaceNeverCreates(t, b) })
	t.Run("RemoveIdempotent", func(t *testing.T) { TestRemoveIdempotent(t, b) })
	t.Run("ListByAlarm", func(t *testing.T) { TestListByAlarm(t, b) })
	t.Run("ListByStateFollowsReplace", func(t *testing.T) { TestListByStateFollowsReplace(t, b) })
	t.Run("Locking", func(t *testing.T) { TestLocking(t, b) })
	t.Run("LockExpiry", func(t *testing.T) { TestLockExpiry(t, b) })
	t.Run("InsertCollapsesDuplicates", func(t *testing.T) { TestInsertCollapsesDuplicates(t, b) })
	t.Run("ConcurrentInsertCollapses", func(t *testing.T) { TestConcurrentInsertCollapses(t, b) })
	t.Run("DeleteOtherInstances", func(t *testing.T) { TestDeleteOtherInstances(t, b) })
	t.Run("NextUpcoming", func(t *testing.T) { TestNextUpcoming(t, b) })
}

var alarmSeq atomic.Int64

// uniqueAlarm returns an alarm id no other test in this process uses, so a
// shared backend can run every subtest without cleanup.
func uniqueAlarm() *int64 {
	v := time.Now().UnixNano()%1_000_000_000*100 + alarmSeq.Add(1)
	return &v
}

func newInstance(alarmID *int64, fire time.Time) types.Instance {
	return *types.NewInstance(fire, alarmID)
}

var baseFire = time.Date(2026, 6, 1, 7, 30, 0, 0, time.UTC)
