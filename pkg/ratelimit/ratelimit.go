// Package ratelimit 基于 Redis 的 GCRA 限流，配额在多实例之间共享
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter 限流接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 每 Period 允许 Rate 次，桶容量 Burst
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerSecond 每秒 rate 次，burst 不小于 rate
func PerSecond(rate, burst int) Limit {
	if rate < 1 {
		rate = 1
	}
	if burst < rate {
		burst = rate
	}
	return Limit{Rate: rate, Period: time.Second, Burst: burst}
}

// Result 单次检查结果
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter redis_rate 实现
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      limit.Burst,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

// CallerKey 已认证请求按用户计数，匿名请求按客户端 IP
func CallerKey(userID, clientIP string) string {
	if userID != "" {
		return "ratelimit:user:" + userID
	}
	return "ratelimit:ip:" + clientIP
}

// Guard 把调用方映射到配额桶
type Guard struct {
	limiter RateLimiter
	limit   Limit
}

// NewGuard 创建 Guard，limiter 为空时一律放行
func NewGuard(limiter RateLimiter, limit Limit) *Guard {
	return &Guard{limiter: limiter, limit: limit}
}

// Limit 当前规则
func (g *Guard) Limit() Limit { return g.limit }

// Check 检查调用方配额。返回 nil 结果表示未计数直接放行
func (g *Guard) Check(ctx context.Context, userID, clientIP string) (*Result, error) {
	if g == nil || g.limiter == nil {
		return nil, nil
	}
	res, err := g.limiter.Allow(ctx, CallerKey(userID, clientIP), g.limit)
	if err != nil {
		return nil, err
	}
	if res.Limit == 0 {
		res.Limit = g.limit.Burst
	}
	return res, nil
}
