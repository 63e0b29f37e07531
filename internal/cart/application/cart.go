package application

import (
	"context"

	"github.com/wyfcoding/pizzashop/internal/cart/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
)

// CartManager 购物车服务门面，整合命令服务和查询服务
type CartManager struct {
	commandService *CartCommandService
	queryService   *CartQueryService
}

// NewCartManager 创建购物车服务门面实例
func NewCartManager(
	repo domain.CartRepository,
	catalog domain.CatalogReader,
	publisher domain.EventPublisher,
	tx db.Transactor,
	m *metrics.Metrics,
) *CartManager {
	cmd := NewCartCommandService(repo, catalog, publisher, tx, m)
	return &CartManager{
		commandService: cmd,
		queryService:   cmd.query,
	}
}

// GetCart 获取用户购物车并计价
func (m *CartManager) GetCart(ctx context.Context, userID string) (*CartView, error) {
	return m.queryService.GetCart(ctx, userID)
}

// AddItem 添加条目
func (m *CartManager) AddItem(ctx context.Context, userID, pizzaID string, qty int, added, removed []string) (*CartView, error) {
	return m.commandService.AddItem(ctx, AddItemCommand{
		UserID:   userID,
		PizzaID:  pizzaID,
		Quantity: qty,
		Added:    added,
		Removed:  removed,
	})
}

// UpdateItem 更新条目
func (m *CartManager) UpdateItem(ctx context.Context, userID, itemID string, qty int, added, removed []string) (*CartView, error) {
	return m.commandService.UpdateItem(ctx, UpdateItemCommand{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: qty,
		Added:    added,
		Removed:  removed,
	})
}

// RemoveItem 移除条目
func (m *CartManager) RemoveItem(ctx context.Context, userID, itemID string) (*CartView, error) {
	return m.commandService.RemoveItem(ctx, userID, itemID)
}

// ClearCart 清空购物车
func (m *CartManager) ClearCart(ctx context.Context, userID string) (bool, error) {
	return m.commandService.ClearCart(ctx, userID)
}

// PriceForCheckout 锁定并计价，须在事务中调用
func (m *CartManager) PriceForCheckout(ctx context.Context, userID string) (*PricedCart, error) {
	return m.queryService.PriceForCheckout(ctx, userID)
}
