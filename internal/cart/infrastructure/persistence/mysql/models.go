package mysql

import (
	"time"

	"github.com/wyfcoding/pizzashop/internal/cart/domain"
)

// CartModel 购物车表，user_id 唯一
type CartModel struct {
	ID        string `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID    string `gorm:"column:user_id;type:varchar(64);uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CartModel) TableName() string { return "carts" }

// CartItemModel 购物车条目表
type CartItemModel struct {
	ID        string                 `gorm:"column:id;type:varchar(36);primaryKey"`
	CartID    string                 `gorm:"column:cart_id;type:varchar(36);index;not null"`
	PizzaID   string                 `gorm:"column:pizza_id;type:varchar(36);not null"`
	Quantity  int                    `gorm:"column:quantity;not null"`
	CreatedAt time.Time              `gorm:"index"`
	UpdatedAt time.Time
	Toppings  []CartItemToppingModel `gorm:"foreignKey:CartItemID"`
}

func (CartItemModel) TableName() string { return "cart_items" }

// CartItemToppingModel 条目配料调整，(cart_item_id, topping_id) 唯一
type CartItemToppingModel struct {
	CartItemID string `gorm:"column:cart_item_id;type:varchar(36);primaryKey"`
	ToppingID  string `gorm:"column:topping_id;type:varchar(36);primaryKey"`
	IsAdded    bool   `gorm:"column:is_added;not null"`
	Position   int    `gorm:"column:position;not null"`
}

func (CartItemToppingModel) TableName() string { return "cart_item_toppings" }

// Models 需要迁移的表
func Models() []any {
	return []any{&CartModel{}, &CartItemModel{}, &CartItemToppingModel{}}
}

func cartToDomain(m *CartModel, items []CartItemModel) *domain.Cart {
	cart := &domain.Cart{
		ID:        m.ID,
		UserID:    m.UserID,
		Items:     make([]*domain.CartItem, 0, len(items)),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for i := range items {
		cart.Items = append(cart.Items, itemToDomain(&items[i]))
	}
	return cart
}

func itemToDomain(m *CartItemModel) *domain.CartItem {
	overrides := make([]domain.ToppingOverride, 0, len(m.Toppings))
	for _, t := range m.Toppings {
		overrides = append(overrides, domain.ToppingOverride{ToppingID: t.ToppingID, IsAdded: t.IsAdded})
	}
	return &domain.CartItem{
		ID:        m.ID,
		CartID:    m.CartID,
		PizzaID:   m.PizzaID,
		Quantity:  m.Quantity,
		Overrides: overrides,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func overrideModels(item *domain.CartItem) []CartItemToppingModel {
	rows := make([]CartItemToppingModel, 0, len(item.Overrides))
	for i, o := range item.Overrides {
		rows = append(rows, CartItemToppingModel{
			CartItemID: item.ID,
			ToppingID:  o.ToppingID,
			IsAdded:    o.IsAdded,
			Position:   i,
		})
	}
	return rows
}
