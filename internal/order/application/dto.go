package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"github.com/wyfcoding/pizzashop/pkg/utils"
)

// Actor 当前调用方
type Actor struct {
	UserID string
	Admin  bool
}

// canAccess 非管理员只能访问自己的订单
func (a Actor) canAccess(o *domain.Order) bool {
	return a.Admin || a.UserID == o.UserID
}

// ToppingDTO 订单条目中的配料快照
type ToppingDTO struct {
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

// OrderItemDTO 订单条目
type OrderItemDTO struct {
	ID        string          `json:"id"`
	PizzaName string          `json:"pizza_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Toppings  []ToppingDTO    `json:"toppings"`
	ItemTotal decimal.Decimal `json:"item_total"`
}

// OrderDTO 订单详情
type OrderDTO struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemDTO  `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderListDTO 订单列表项
type OrderListDTO struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id,omitempty"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderPage 管理端分页结果
type OrderPage struct {
	Orders     []OrderListDTO    `json:"orders"`
	Pagination *utils.Pagination `json:"pagination"`
}

// ListOrdersQuery 管理端列表查询，空值表示不过滤
type ListOrdersQuery struct {
	Status   string
	UserID   string
	Page     int
	PageSize int
}

func toOrderDTO(o *domain.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status.String(),
		TotalAmount: o.TotalAmount,
		Items:       make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, it := range o.Items {
		item := OrderItemDTO{
			ID:        it.ID,
			PizzaName: it.PizzaName,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Toppings:  make([]ToppingDTO, 0, len(it.Toppings)),
			ItemTotal: it.ItemTotal(),
		}
		for _, t := range it.Toppings {
			item.Toppings = append(item.Toppings, ToppingDTO{Name: t.Name, Cost: t.Cost})
		}
		dto.Items = append(dto.Items, item)
	}
	return dto
}

func toOrderListDTOs(summaries []*domain.Summary, withUser bool) []OrderListDTO {
	out := make([]OrderListDTO, 0, len(summaries))
	for _, s := range summaries {
		dto := OrderListDTO{
			ID:          s.ID,
			OrderNumber: s.OrderNumber,
			Status:      s.Status.String(),
			TotalAmount: s.TotalAmount,
			ItemCount:   s.ItemCount,
			CreatedAt:   s.CreatedAt,
		}
		if withUser {
			dto.UserID = s.UserID
		}
		out = append(out, dto)
	}
	return out
}
