package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"github.com/wyfcoding/pizzashop/pkg/cache"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewFromClient(client, "shop:"), mr
}

func TestOrderCacheRoundTrip(t *testing.T) {
	c, mr := newCache(t)
	repo := NewOrderRedisRepository(c, time.Minute)
	ctx := context.Background()

	order := &domain.Order{
		ID:          "o-1",
		OrderNumber: "1001",
		UserID:      "user-1",
		Status:      domain.StatusPreparing,
		TotalAmount: decimal.RequireFromString("25.98"),
		Items: []domain.OrderItem{{
			ID:        "i-1",
			PizzaName: "Classic",
			UnitPrice: decimal.RequireFromString("12.99"),
			Quantity:  2,
			Toppings:  []domain.ToppingSnapshot{{Name: "Cheese", Cost: decimal.RequireFromString("1.50")}},
		}},
	}
	require.NoError(t, repo.Save(ctx, order))
	assert.True(t, mr.Exists("shop:order:o-1"))
	assert.Equal(t, time.Minute, mr.TTL("shop:order:o-1"))

	got, err := repo.Get(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusPreparing, got.Status)
	assert.Equal(t, "25.98", got.TotalAmount.StringFixed(2))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Cheese", got.Items[0].Toppings[0].Name)

	require.NoError(t, repo.Delete(ctx, "o-1"))
	got, err = repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderCacheDefaultTTL(t *testing.T) {
	c, mr := newCache(t)
	repo := NewOrderRedisRepository(c, 0)
	require.NoError(t, repo.Save(context.Background(), &domain.Order{ID: "o-2"}))
	assert.Equal(t, 15*time.Minute, mr.TTL("shop:order:o-2"))

	got, err := repo.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotencyLifecycle(t *testing.T) {
	c, _ := newCache(t)
	store := NewIdempotencyStore(c)
	ctx := context.Background()

	ok, existing, err := store.Reserve(ctx, "u:k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, existing)

	// 进行中
	ok, existing, err = store.Reserve(ctx, "u:k", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, existing)

	require.NoError(t, store.Complete(ctx, "u:k", "o-9", time.Hour))
	ok, existing, err = store.Reserve(ctx, "u:k", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "o-9", existing)

	require.NoError(t, store.Release(ctx, "u:k"))
	ok, _, err = store.Reserve(ctx, "u:k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
