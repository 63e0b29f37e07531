// Package domain 包含购物车的领域模型
package domain

import (
	"context"
	"time"

	"github.com/wyfcoding/pizzashop/internal/pricing/domain"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
)

// 单项数量范围
const (
	MinQuantity = 1
	MaxQuantity = 100
)

// Cart 用户购物车，每个用户至多一个，惰性创建且不会被删除
type Cart struct {
	ID        string
	UserID    string
	Items     []*CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem 购物车条目
type CartItem struct {
	ID       string
	CartID   string
	PizzaID  string
	Quantity int
	// 每个配料至多一条
	Overrides []ToppingOverride
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToppingOverride 条目级配料调整。IsAdded 为 true 表示加料，false 表示去掉默认配料
type ToppingOverride struct {
	ToppingID string
	IsAdded   bool
}

// Item 查找条目，不存在时返回 nil
func (c *Cart) Item(id string) *CartItem {
	for _, it := range c.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// IsEmpty 购物车是否没有条目
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// PricingItems 转为计价引擎的输入
func (c *Cart) PricingItems() []domain.Item {
	items := make([]domain.Item, 0, len(c.Items))
	for _, it := range c.Items {
		overrides := make([]domain.Override, 0, len(it.Overrides))
		for _, o := range it.Overrides {
			overrides = append(overrides, domain.Override{ToppingID: o.ToppingID, IsAdded: o.IsAdded})
		}
		items = append(items, domain.Item{
			ID:        it.ID,
			PizzaID:   it.PizzaID,
			Quantity:  it.Quantity,
			Overrides: overrides,
		})
	}
	return items
}

// ValidateQuantity 校验数量范围
func ValidateQuantity(qty int) error {
	if qty < MinQuantity || qty > MaxQuantity {
		return errorx.InvalidInput("quantity must be between %d and %d", MinQuantity, MaxQuantity)
	}
	return nil
}

// BuildOverrides 由加料与去料列表生成调整集合。
// 同一配料同时出现在两个列表时以去料为准；known 返回 false 的配料被忽略；结果中每个配料只出现一次
func BuildOverrides(added, removed []string, known func(id string) bool) []ToppingOverride {
	removedSet := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		removedSet[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(added)+len(removed))
	out := make([]ToppingOverride, 0, len(added)+len(removed))
	for _, id := range added {
		if _, ok := removedSet[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok || !known(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, ToppingOverride{ToppingID: id, IsAdded: true})
	}
	for _, id := range removed {
		if _, ok := seen[id]; ok || !known(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, ToppingOverride{ToppingID: id, IsAdded: false})
	}
	return out
}

// CartRepository 购物车仓储接口。调用方负责事务，查询不到时返回 nil, nil
type CartRepository interface {
	// GetOrCreate 以唯一索引上的 upsert 创建购物车后重新读取，并发首次访问也只会得到一个购物车。
	// 在事务中调用时对购物车行加锁
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	// LockByUserID 对购物车行加 FOR UPDATE 锁后读取
	LockByUserID(ctx context.Context, userID string) (*Cart, error)
	AddItem(ctx context.Context, item *CartItem) error
	// ReplaceItem 更新数量并整体替换调整集合
	ReplaceItem(ctx context.Context, item *CartItem) error
	RemoveItem(ctx context.Context, cartID, itemID string) (bool, error)
	ClearItems(ctx context.Context, cartID string) (int64, error)
}

// CatalogReader 实时读取计价所需的目录数据
type CatalogReader interface {
	LoadPricingCatalog(ctx context.Context, pizzaIDs, toppingIDs []string) (domain.Catalog, error)
}

// EventPublisher 事件发布接口，ctx 上有事务时随事务提交
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
