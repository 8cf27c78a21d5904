package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds cart reads for the checkout path. The TTL is short on
// purpose: a stale cart here becomes a wrong order snapshot, so the cache only
// smooths bursts, it is not the source of truth. Expiry is jittered so a cold
// start does not expire every user at once.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cached cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(userID), data, r.jitteredTTL()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete drops the cached copy; reconciliation calls this right after the
// stored cart is cleared so a paid user never sees their old cart again.
func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// jitteredTTL spreads expiry up to 20% past the base TTL.
func (r *RedisCache) jitteredTTL() time.Duration {
	return r.ttl + time.Duration(rand.Int63n(int64(r.ttl)/5))
}

func cartKey(userID string) string {
	return fmt.Sprintf("checkout:cart:%s", userID)
}
