package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/pizzashop/pkg/cache"
)

const pendingMarker = "pending"

// IdempotencyStore 基于 SETNX 的下单幂等键
type IdempotencyStore struct {
	cache  *cache.RedisCache
	prefix string
}

// NewIdempotencyStore 创建幂等键存储
func NewIdempotencyStore(c *cache.RedisCache) *IdempotencyStore {
	return &IdempotencyStore{cache: c, prefix: "idempotency:checkout:"}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	ok, err := s.cache.SetNX(ctx, s.prefix+key, pendingMarker, ttl)
	if err != nil {
		return false, "", fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}

	val, found, err := s.cache.Get(ctx, s.prefix+key)
	if err != nil {
		return false, "", fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if !found || val == pendingMarker {
		return false, "", nil
	}
	return false, val, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, orderID string, ttl time.Duration) error {
	return s.cache.Set(ctx, s.prefix+key, orderID, ttl)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, s.prefix+key)
}
