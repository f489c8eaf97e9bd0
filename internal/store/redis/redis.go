// Package redis implements the store Backend using Redis/Valkey.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Compile-time interface satisfaction check.
var _ store.Backend = (*Backend)(nil)

const defaultPrefix = "alarmd:"

// maxWatchRetries bounds optimistic-lock retries for index-maintaining writes.
const maxWatchRetries = 5

// Backend implements store.Backend backed by Redis/Valkey.
type Backend struct {
	client *goredis.Client
	prefix string
}

// New creates a new Backend.
func New(cfg *Config) *Backend {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewFromClient(client, cfg.KeyPrefix)
}

// NewFromClient creates a Backend from an existing client (useful for testing).
func NewFromClient(client *goredis.Client, prefix string) *Backend {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Backend{client: client, prefix: prefix}
}

// Start initializes the backend connection.
func (b *Backend) Start(ctx context.Context) error {
	return b.Ping(ctx)
}

// Stop closes the backend connection.
func (b *Backend) Stop(_ context.Context) error {
	return b.client.Close()
}

// Ping checks connectivity to the Redis server.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Client returns the underlying Redis client (for advanced usage/testing).
func (b *Backend) Client() *goredis.Client {
	return b.client
}

func (b *Backend) instanceKey(id int64) string {
	return b.prefix + "instance:" + strconv.FormatInt(id, 10)
}

func (b *Backend) alarmIndexKey(alarmID int64) string {
	return b.prefix + "alarm:" + strconv.FormatInt(alarmID, 10)
}

func (b *Backend) stateIndexKey(s types.State) string {
	return b.prefix + "state:" + string(s)
}

func (b *Backend) sequenceKey() string {
	return b.prefix + "seq:instance"
}

func (b *Backend) lockKey(key string) string {
	return b.prefix + "lock:" + key
}

// AcquireLock attempts to acquire a distributed lock with the given key and TTL.
func (b *Backend) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return b.client.SetNX(ctx, b.lockKey(key), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock.
func (b *Backend) ReleaseLock(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.lockKey(key)).Err()
}
