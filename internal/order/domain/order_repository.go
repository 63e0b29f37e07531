package domain

import (
	"context"
	"time"
)

// OrderRepository 订单仓储接口。默认查询不包含已取消（软删除）的订单，查询不到时返回 nil, nil
type OrderRepository interface {
	// Create 保存订单及其条目，调用方负责事务
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// UpdateStatus 记录不存在时返回 false
	UpdateStatus(ctx context.Context, id string, status Status) (bool, error)
	// SoftDelete 记录不存在时返回 false
	SoftDelete(ctx context.Context, id string) (bool, error)
	// ListByUser 按创建时间倒序
	ListByUser(ctx context.Context, userID string) ([]*Summary, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*Summary, int64, error)
}

// OrderReadRepository 订单读缓存
type OrderReadRepository interface {
	Get(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore 下单幂等键存储
type IdempotencyStore interface {
	// Reserve 占用键。已被占用时返回 false 以及已完成的订单 ID（仍在处理中时为空）
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	// Complete 记录键对应的订单
	Complete(ctx context.Context, key, orderID string, ttl time.Duration) error
	// Release 下单失败时释放键
	Release(ctx context.Context, key string) error
}

// EventPublisher 事件发布接口，ctx 上有事务时随事务提交
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
