package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CheckoutDeduper guards against duplicate checkout re-entry: resubmitting
// the same cart while the first attempt is still in flight must not create a
// second transaction. The guard is a short-lived NX key, so an abandoned
// attempt unblocks itself when the window expires.
type CheckoutDeduper interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisDeduper struct {
	client *redis.Client
	window time.Duration
}

func NewRedisDeduper(client *redis.Client, window time.Duration) CheckoutDeduper {
	return &redisDeduper{client: client, window: window}
}

func (d *redisDeduper) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKey(key), 1, d.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup acquire failed: %w", err)
	}
	return ok, nil
}

func (d *redisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, dedupKey(key)).Err(); err != nil {
		return fmt.Errorf("dedup release failed: %w", err)
	}
	return nil
}

func dedupKey(key string) string {
	return fmt.Sprintf("checkout:dedup:%s", key)
}
