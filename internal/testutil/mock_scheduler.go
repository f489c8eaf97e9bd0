// Package testutil provides shared test doubles for alarmd.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/dwsmith1983/alarmd/internal/scheduler"
)

// Compile-time interface satisfaction check.
var _ scheduler.WakeScheduler = (*MockScheduler)(nil)

// MockScheduler records the pending wake per instance.
type MockScheduler struct {
	mu          sync.Mutex
	wakes       map[int64]time.Time
	registers   int
	unregisters int

	// RegisterErr and UnregisterErr, when set, are returned by every call.
	RegisterErr   error
	UnregisterErr error
}

// NewMockScheduler creates an empty scheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{wakes: make(map[int64]time.Time)}
}

// RegisterWake records at as the instance's pending wake.
func (m *MockScheduler) RegisterWake(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return m.RegisterErr
	}
	m.registers++
	m.wakes[id] = at
	return nil
}

// UnregisterWake clears the instance's pending wake.
func (m *MockScheduler) UnregisterWake(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UnregisterErr != nil {
		return m.UnregisterErr
	}
	m.unregisters++
	delete(m.wakes, id)
	return nil
}

// Wake returns the pending wake for id.
func (m *MockScheduler) Wake(id int64) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.wakes[id]
	return at, ok
}

// Registers returns how many wakes were registered successfully.
func (m *MockScheduler) Registers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registers
}

// Unregisters returns how many wakes were unregistered successfully.
func (m *MockScheduler) Unregisters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unregisters
}

// SetRegisterErr swaps the register error under the lock.
func (m *MockScheduler) SetRegisterErr(err error) {
	m.mu.Lock()
	m.RegisterErr = err
	m.mu.Unlock()
}
