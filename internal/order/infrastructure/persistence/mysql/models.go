package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"gorm.io/gorm"
)

// OrderModel 订单表，取消即软删除
type OrderModel struct {
	ID          string           `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderNumber string           `gorm:"column:order_number;type:varchar(32);uniqueIndex;not null"`
	UserID      string           `gorm:"column:user_id;type:varchar(64);index;not null"`
	Status      int              `gorm:"column:status;index;not null"`
	TotalAmount decimal.Decimal  `gorm:"column:total_amount;type:decimal(18,2);not null"`
	CreatedAt   time.Time        `gorm:"index"`
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt   `gorm:"index"`
	Items       []OrderItemModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 订单条目表，toppings 为 JSON 快照
type OrderItemModel struct {
	ID        string          `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID   string          `gorm:"column:order_id;type:varchar(36);index;not null"`
	Position  int             `gorm:"column:position;not null"`
	PizzaName string          `gorm:"column:pizza_name;type:varchar(100);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(18,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Toppings  string          `gorm:"column:toppings;type:text;not null"`
	CreatedAt time.Time
}

func (OrderItemModel) TableName() string { return "order_items" }

// summaryRow 列表查询结果
type summaryRow struct {
	ID          string
	OrderNumber string
	UserID      string
	Status      int
	TotalAmount decimal.Decimal
	ItemCount   int
	CreatedAt   time.Time
}

// Models 需要迁移的表
func Models() []any {
	return []any{&OrderModel{}, &OrderItemModel{}}
}

func toOrderModel(o *domain.Order) (*OrderModel, error) {
	m := &OrderModel{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      int(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       make([]OrderItemModel, 0, len(o.Items)),
	}
	for i, it := range o.Items {
		toppings, err := domain.EncodeToppings(it.Toppings)
		if err != nil {
			return nil, err
		}
		m.Items = append(m.Items, OrderItemModel{
			ID:        it.ID,
			OrderID:   o.ID,
			Position:  i,
			PizzaName: it.PizzaName,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Toppings:  toppings,
		})
	}
	return m, nil
}

func toOrder(m *OrderModel) (*domain.Order, error) {
	o := &domain.Order{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		UserID:      m.UserID,
		Status:      domain.Status(m.Status),
		TotalAmount: m.TotalAmount,
		Items:       make([]domain.OrderItem, 0, len(m.Items)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, it := range m.Items {
		toppings, err := domain.DecodeToppings(it.Toppings)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, domain.OrderItem{
			ID:        it.ID,
			OrderID:   it.OrderID,
			PizzaName: it.PizzaName,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Toppings:  toppings,
		})
	}
	return o, nil
}

func toSummary(r *summaryRow) *domain.Summary {
	return &domain.Summary{
		ID:          r.ID,
		OrderNumber: r.OrderNumber,
		UserID:      r.UserID,
		Status:      domain.Status(r.Status),
		TotalAmount: r.TotalAmount,
		ItemCount:   r.ItemCount,
		CreatedAt:   r.CreatedAt,
	}
}
