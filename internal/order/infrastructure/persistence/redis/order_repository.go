package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"github.com/wyfcoding/pizzashop/pkg/cache"
)

// OrderRedisRepository 订单详情读缓存
type OrderRedisRepository struct {
	cache  *cache.RedisCache
	prefix string
	ttl    time.Duration
}

// NewOrderRedisRepository 创建订单读缓存，ttl 为 0 时默认 15 分钟
func NewOrderRedisRepository(c *cache.RedisCache, ttl time.Duration) *OrderRedisRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &OrderRedisRepository{
		cache:  c,
		prefix: "order:",
		ttl:    ttl,
	}
}

func (r *OrderRedisRepository) Save(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return nil
	}
	if err := r.cache.SetJSON(ctx, r.key(order.ID), order, r.ttl); err != nil {
		return fmt.Errorf("failed to cache order: %w", err)
	}
	return nil
}

func (r *OrderRedisRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, nil
	}
	var order domain.Order
	ok, err := r.cache.GetJSON(ctx, r.key(id), &order)
	if err != nil {
		return nil, fmt.Errorf("failed to get order from redis: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (r *OrderRedisRepository) Delete(ctx context.Context, id string) error {
	return r.cache.Delete(ctx, r.key(id))
}

func (r *OrderRedisRepository) key(id string) string {
	return r.prefix + id
}
