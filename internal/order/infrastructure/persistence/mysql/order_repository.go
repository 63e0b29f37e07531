// Package mysql 提供了订单仓储接口的 GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"gorm.io/gorm"
)

// orderRepositoryImpl 是 domain.OrderRepository 接口的 GORM 实现。
type orderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(database *gorm.DB) domain.OrderRepository {
	return &orderRepositoryImpl{db: database}
}

// Create 实现 domain.OrderRepository.Create
func (r *orderRepositoryImpl) Create(ctx context.Context, order *domain.Order) error {
	model, err := toOrderModel(order)
	if err != nil {
		return err
	}
	if err := db.Conn(ctx, r.db).Create(model).Error; err != nil {
		logger.Error(ctx, "order_repository.create failed", "order_id", order.ID, "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// Get 实现 domain.OrderRepository.Get
func (r *orderRepositoryImpl) Get(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := db.Conn(ctx, r.db).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Where("id = ?", id).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "order_repository.get failed", "order_id", id, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return toOrder(&model)
}

// UpdateStatus 实现 domain.OrderRepository.UpdateStatus
func (r *orderRepositoryImpl) UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	res := db.Conn(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).Update("status", int(status))
	if res.Error != nil {
		logger.Error(ctx, "order_repository.update_status failed", "order_id", id, "error", res.Error)
		return false, fmt.Errorf("failed to update order status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SoftDelete 实现 domain.OrderRepository.SoftDelete
func (r *orderRepositoryImpl) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&OrderModel{})
	if res.Error != nil {
		logger.Error(ctx, "order_repository.soft_delete failed", "order_id", id, "error", res.Error)
		return false, fmt.Errorf("failed to delete order: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepositoryImpl) summaries(ctx context.Context) *gorm.DB {
	itemCount := db.Conn(ctx, r.db).Model(&OrderItemModel{}).
		Select("COUNT(*)").
		Where("order_items.order_id = orders.id")
	return db.Conn(ctx, r.db).Model(&OrderModel{}).
		Select("orders.id, orders.order_number, orders.user_id, orders.status, orders.total_amount, orders.created_at, (?) AS item_count", itemCount)
}

// ListByUser 实现 domain.OrderRepository.ListByUser
func (r *orderRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*domain.Summary, error) {
	var rows []summaryRow
	err := r.summaries(ctx).
		Where("orders.user_id = ?", userID).
		Order("orders.created_at DESC, orders.order_number DESC").
		Scan(&rows).Error
	if err != nil {
		logger.Error(ctx, "order_repository.list_by_user failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return toSummaries(rows), nil
}

// List 实现 domain.OrderRepository.List
func (r *orderRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.Summary, int64, error) {
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Status != nil {
			q = q.Where("orders.status = ?", int(*filter.Status))
		}
		if filter.UserID != "" {
			q = q.Where("orders.user_id = ?", filter.UserID)
		}
		return q
	}

	var total int64
	if err := apply(db.Conn(ctx, r.db).Model(&OrderModel{})).Count(&total).Error; err != nil {
		logger.Error(ctx, "order_repository.count failed", "error", err)
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var rows []summaryRow
	err := apply(r.summaries(ctx)).
		Order("orders.created_at DESC, orders.order_number DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		logger.Error(ctx, "order_repository.list failed", "error", err)
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return toSummaries(rows), total, nil
}

func toSummaries(rows []summaryRow) []*domain.Summary {
	out := make([]*domain.Summary, 0, len(rows))
	for i := range rows {
		out = append(out, toSummary(&rows[i]))
	}
	return out
}
