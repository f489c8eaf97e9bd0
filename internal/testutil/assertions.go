package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// WaitFor polls check every 10ms until it returns true or timeout is reached.
func WaitFor(t *testing.T, timeout time.Duration, check func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for condition: %s", msg)
}

// RequireState fails the test unless the persisted instance is in want.
func RequireState(t *testing.T, repo *store.Instances, id int64, want types.State) *types.Instance {
	t.Helper()
	got, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loading instance %d: %v", id, err)
	}
	if got.State != want {
		t.Fatalf("instance %d: state = %s, want %s", id, got.State, want)
	}
	return got
}
