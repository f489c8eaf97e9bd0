// Package store defines the instance persistence boundary and the
// duplicate-collapsing repository built on top of it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Sentinel errors returned by backends and the repository.
var (
	ErrNotFound    = errors.New("instance not found")
	ErrPersistence = errors.New("instance persistence failed")
)

// Backend is the storage backend interface. Implementations: DynamoDB, Redis
// and an in-memory map.
type Backend interface {
	// Create persists a new row and returns the store-generated id.
	Create(ctx context.Context, inst types.Instance) (int64, error)
	// Get returns the row for id or ErrNotFound.
	Get(ctx context.Context, id int64) (*types.Instance, error)
	// Replace overwrites an existing row. It never creates one; a missing
	// row yields ErrNotFound.
	Replace(ctx context.Context, inst types.Instance) error
	// Remove deletes the row. Removing a missing id is not an error.
	Remove(ctx context.Context, id int64) error
	// ListByAlarm returns rows for alarmID in a stable backend order.
	ListByAlarm(ctx context.Context, alarmID int64) ([]types.Instance, error)
	// ListByState returns rows currently in state.
	ListByState(ctx context.Context, state types.State) ([]types.Instance, error)

	// Distributed locking for per-instance serialization
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error

	// Lifecycle
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Ping(ctx context.Context) error
}

// WakeCanceler removes a pending wake-up for an instance.
type WakeCanceler interface {
	UnregisterWake(ctx context.Context, instanceID int64) error
}
