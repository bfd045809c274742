package batchlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T) (*BatchLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestAcquire_FirstWins(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire of the same batch must fail")
}

func TestAcquire_DistinctBatchesIndependent(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "batch-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease_AllowsReacquire(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "batch-1"))

	ok, err = lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquire_ExpiresWithTTL(t *testing.T) {
	lock, mr := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = lock.Acquire(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, ok, "lock should expire after TTL")
}
