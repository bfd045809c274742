package batchlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-sim-worker/internal/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

const lockKeyFormat = "credit-sim:batch-lock:%s"

// BatchLock serializes batch runs per batch id via a redis SETNX lock,
// so re-triggering a running batch cannot interleave writes.
type BatchLock struct {
	client *goredis.Client
	ttl    time.Duration
}

func New(client *goredis.Client, ttl time.Duration) *BatchLock {
	return &BatchLock{client: client, ttl: ttl}
}

// Acquire returns false when the batch id is already locked.
func (l *BatchLock) Acquire(ctx context.Context, batchID string) (bool, error) {
	key := fmt.Sprintf(lockKeyFormat, batchID)
	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire batch lock %s: %w", key, err)
	}
	return ok, nil
}

func (l *BatchLock) Release(ctx context.Context, batchID string) error {
	key := fmt.Sprintf(lockKeyFormat, batchID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		logger.CtxError(ctx, "Failed to release batch lock", err, slog.String("key", key))
		return fmt.Errorf("failed to release batch lock %s: %w", key, err)
	}
	return nil
}
