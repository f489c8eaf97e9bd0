// Package memory implements the store Backend with in-process maps.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Compile-time interface satisfaction check.
var _ store.Backend = (*Backend)(nil)

// Backend is a mutex-guarded in-memory store for tests and single-process use.
type Backend struct {
	mu     sync.Mutex
	rows   map[int64]types.Instance
	locks  map[string]time.Time
	nextID int64
	now    func() time.Time
}

// New creates an empty in-memory backend. Ids start at 1.
func New() *Backend {
	return &Backend{
		rows:  make(map[int64]types.Instance),
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (b *Backend) Create(_ context.Context, inst types.Instance) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	inst.ID = b.nextID
	b.rows[inst.ID] = *inst.Clone()
	return inst.ID, nil
}

func (b *Backend) Get(_ context.Context, id int64) (*types.Instance, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.rows[id]
	if !ok {
		return nil, fmt.Errorf("instance %d: %w", id, store.ErrNotFound)
	}
	return row.Clone(), nil
}

func (b *Backend) Replace(_ context.Context, inst types.Instance) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rows[inst.ID]; !ok {
		return fmt.Errorf("instance %d: %w", inst.ID, store.ErrNotFound)
	}
	b.rows[inst.ID] = *inst.Clone()
	return nil
}

func (b *Backend) Remove(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rows, id)
	return nil
}

// ListByAlarm returns rows in id order.
func (b *Backend) ListByAlarm(_ context.Context, alarmID int64) ([]types.Instance, error) {
	return b.filter(func(i *types.Instance) bool { return i.SameAlarm(&alarmID) }), nil
}

func (b *Backend) ListByState(_ context.Context, state types.State) ([]types.Instance, error) {
	return b.filter(func(i *types.Instance) bool { return i.State == state }), nil
}

func (b *Backend) filter(match func(*types.Instance) bool) []types.Instance {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []types.Instance
	for _, row := range b.rows {
		if match(&row) {
			out = append(out, *row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) AcquireLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if exp, held := b.locks[key]; held && now.Before(exp) {
		return false, nil
	}
	b.locks[key] = now.Add(ttl)
	return true, nil
}

func (b *Backend) ReleaseLock(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.locks, key)
	return nil
}

func (b *Backend) Start(_ context.Context) error { return nil }
func (b *Backend) Stop(_ context.Context) error  { return nil }
func (b *Backend) Ping(_ context.Context) error  { return nil }
