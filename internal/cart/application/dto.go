package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/cart/domain"
	pricing "github.com/wyfcoding/pizzashop/internal/pricing/domain"
)

// ToppingView 生效配料
type ToppingView struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Cost    decimal.Decimal `json:"cost"`
	Default bool            `json:"default"`
}

// CustomToppingView 用户对默认配料的调整
type CustomToppingView struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Cost    decimal.Decimal `json:"cost"`
	IsAdded bool            `json:"is_added"`
}

// CartItemView 购物车条目视图
type CartItemView struct {
	ID             string              `json:"id"`
	PizzaID        string              `json:"pizza_id"`
	PizzaName      string              `json:"pizza_name"`
	BasePrice      decimal.Decimal     `json:"base_price"`
	Quantity       int                 `json:"quantity"`
	Toppings       []ToppingView       `json:"toppings"`
	CustomToppings []CustomToppingView `json:"custom_toppings"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	ItemTotal      decimal.Decimal     `json:"item_total"`
}

// CartView 按实时目录计价后的购物车
type CartView struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Items     []CartItemView  `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PricedCart 结算用的购物车报价
type PricedCart struct {
	Cart  *domain.Cart
	Quote pricing.Quote
}

func newCartView(cart *domain.Cart, cat pricing.Catalog, quote pricing.Quote) *CartView {
	view := &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]CartItemView, 0, len(quote.Items)),
		Total:     quote.Total,
		UpdatedAt: cart.UpdatedAt,
	}

	for i, iq := range quote.Items {
		item := cart.Items[i]
		iv := CartItemView{
			ID:             iq.ItemID,
			PizzaID:        iq.PizzaID,
			PizzaName:      iq.PizzaName,
			BasePrice:      iq.BasePrice,
			Quantity:       iq.Quantity,
			Toppings:       make([]ToppingView, 0, len(iq.Toppings)),
			CustomToppings: make([]CustomToppingView, 0, len(item.Overrides)),
			UnitPrice:      iq.UnitPrice,
			ItemTotal:      iq.LineTotal,
		}
		for _, t := range iq.Toppings {
			iv.Toppings = append(iv.Toppings, ToppingView{ID: t.ToppingID, Name: t.Name, Cost: t.Cost, Default: t.Default})
		}
		defaults := make(map[string]struct{})
		if p, ok := cat.Pizza(item.PizzaID); ok {
			for _, id := range p.DefaultToppingIDs {
				defaults[id] = struct{}{}
			}
		}
		for _, o := range item.Overrides {
			// 只展示生效的调整：加非默认配料或去默认配料
			if _, isDefault := defaults[o.ToppingID]; isDefault == o.IsAdded {
				continue
			}
			t, ok := cat.Topping(o.ToppingID)
			if !ok {
				continue
			}
			iv.CustomToppings = append(iv.CustomToppings, CustomToppingView{ID: t.ID, Name: t.Name, Cost: t.Cost, IsAdded: o.IsAdded})
		}
		view.Items = append(view.Items, iv)
		view.ItemCount += iq.Quantity
	}
	return view
}
