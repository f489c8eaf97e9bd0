package testutil

import (
	"context"
	"sync"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu  sync.Mutex
	got []types.Notification
}

// Notify records n.
func (r *RecordingNotifier) Notify(_ context.Context, n types.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

// All returns a copy of the recorded notifications.
func (r *RecordingNotifier) All() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Notification, len(r.got))
	copy(out, r.got)
	return out
}

// Kinds returns the recorded notification kinds for one instance, in order.
func (r *RecordingNotifier) Kinds(instanceID int64) []types.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.NotificationKind
	for _, n := range r.got {
		if n.InstanceID == instanceID {
			out = append(out, n.Kind)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *RecordingNotifier) Reset() {
	r.mu.Lock()
	r.got = nil
	r.mu.Unlock()
}
