package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/alarmd/internal/store"
)

// TestLocking verifies acquire, double-acquire, different-key, release, re-acquire.
func TestLocking(t *testing.T, b store.Backend) {
	ctx := context.Background()
	key := store.InstanceLockKey(*uniqueAlarm())

	ok, err := b.AcquireLock(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// Double acquire fails
	ok, err = b.AcquireLock(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = b.AcquireLock(ctx, key+"-other", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.ReleaseLock(ctx, key))

	ok, err = b.AcquireLock(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.ReleaseLock(ctx, key))
	require.NoError(t, b.ReleaseLock(ctx, key+"-other"))
}

// TestLockExpiry verifies locks expire after their TTL.
func TestLockExpiry(t *testing.T, b store.Backend) {
	ctx := context.Background()
	key := store.InstanceLockKey(*uniqueAlarm())

	ok, err := b.AcquireLock(ctx, key, 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.AcquireLock(ctx, key, 1*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	time.Sleep(2100 * time.Millisecond)

	ok, err = b.AcquireLock(ctx, key, 1*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.ReleaseLock(ctx, key))
}
