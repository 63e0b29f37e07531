// Package domain 购物车计价引擎。
// 目录数据以 id 为键的值对象传入，不持有实体间的反向引用；所有金额均为精确小数。
package domain

import "github.com/shopspring/decimal"

// Pizza 计价所需的披萨信息
type Pizza struct {
	ID        string
	Name      string
	BasePrice decimal.Decimal
	// 默认配料，保持目录中的顺序
	DefaultToppingIDs []string
}

// Topping 计价所需的配料信息
type Topping struct {
	ID   string
	Name string
	Cost decimal.Decimal
}

// Catalog 一次计价使用的目录快照，调用方每次计价前从存储实时加载
type Catalog struct {
	Pizzas   map[string]Pizza
	Toppings map[string]Topping
}

// NewCatalog 由列表构建目录
func NewCatalog(pizzas []Pizza, toppings []Topping) Catalog {
	c := Catalog{
		Pizzas:   make(map[string]Pizza, len(pizzas)),
		Toppings: make(map[string]Topping, len(toppings)),
	}
	for _, p := range pizzas {
		c.Pizzas[p.ID] = p
	}
	for _, t := range toppings {
		c.Toppings[t.ID] = t
	}
	return c
}

// Pizza 按 id 查找
func (c Catalog) Pizza(id string) (Pizza, bool) {
	p, ok := c.Pizzas[id]
	return p, ok
}

// Topping 按 id 查找
func (c Catalog) Topping(id string) (Topping, bool) {
	t, ok := c.Toppings[id]
	return t, ok
}

// Override 单个购物车项对配料的调整。IsAdded=true 表示加料，false 表示去掉默认配料
type Override struct {
	ToppingID string
	IsAdded   bool
}

// Item 待计价的购物车项
type Item struct {
	ID        string
	PizzaID   string
	Quantity  int
	Overrides []Override
}

// ResolvedTopping 生效的配料
type ResolvedTopping struct {
	ToppingID string
	Name      string
	Cost      decimal.Decimal
	// 是否为披萨默认配料
	Default bool
}

// ItemQuote 单项报价
type ItemQuote struct {
	ItemID    string
	PizzaID   string
	PizzaName string
	BasePrice decimal.Decimal
	Quantity  int
	Toppings  []ResolvedTopping
	// 单价 = 底价 + 生效配料，不含数量
	UnitPrice decimal.Decimal
	// 行合计 = 单价 × 数量
	LineTotal decimal.Decimal
}

// Quote 整车报价
type Quote struct {
	Items []ItemQuote
	Total decimal.Decimal
}

// ResolveToppings 计算生效配料 id：
// 先是未被移除的默认配料（保持默认顺序），再是不属于默认集合的加料（保持调整顺序）。
// 只按默认集合做成员判断，不对调整记录去重；与默认重复的加料、针对非默认配料的移除均无效果。
func ResolveToppings(defaults []string, overrides []Override) []string {
	defaultSet := make(map[string]struct{}, len(defaults))
	for _, id := range defaults {
		defaultSet[id] = struct{}{}
	}
	removed := make(map[string]struct{})
	for _, o := range overrides {
		if !o.IsAdded {
			removed[o.ToppingID] = struct{}{}
		}
	}

	effective := make([]string, 0, len(defaults)+len(overrides))
	for _, id := range defaults {
		if _, ok := removed[id]; !ok {
			effective = append(effective, id)
		}
	}
	for _, o := range overrides {
		if !o.IsAdded {
			continue
		}
		if _, ok := defaultSet[o.ToppingID]; ok {
			continue
		}
		effective = append(effective, o.ToppingID)
	}
	return effective
}

// PriceItem 计算单项报价。目录中缺失的披萨按底价 0、无默认配料处理，缺失的配料不计价
func PriceItem(cat Catalog, item Item) ItemQuote {
	q := ItemQuote{
		ItemID:    item.ID,
		PizzaID:   item.PizzaID,
		Quantity:  item.Quantity,
		BasePrice: decimal.Zero,
	}

	var defaults []string
	if p, ok := cat.Pizza(item.PizzaID); ok {
		q.PizzaName = p.Name
		q.BasePrice = p.BasePrice
		defaults = p.DefaultToppingIDs
	}

	defaultSet := make(map[string]struct{}, len(defaults))
	for _, id := range defaults {
		defaultSet[id] = struct{}{}
	}

	unit := q.BasePrice
	for _, id := range ResolveToppings(defaults, item.Overrides) {
		t, ok := cat.Topping(id)
		if !ok {
			continue
		}
		_, isDefault := defaultSet[id]
		q.Toppings = append(q.Toppings, ResolvedTopping{
			ToppingID: t.ID,
			Name:      t.Name,
			Cost:      t.Cost,
			Default:   isDefault,
		})
		unit = unit.Add(t.Cost)
	}

	q.UnitPrice = unit
	q.LineTotal = unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return q
}

// PriceCart 计算整车报价，合计为各行合计之和
func PriceCart(cat Catalog, items []Item) Quote {
	quote := Quote{
		Items: make([]ItemQuote, 0, len(items)),
		Total: decimal.Zero,
	}
	for _, it := range items {
		iq := PriceItem(cat, it)
		quote.Items = append(quote.Items, iq)
		quote.Total = quote.Total.Add(iq.LineTotal)
	}
	return quote
}

// BaseCost 披萨按默认配料的单价
func BaseCost(cat Catalog, pizzaID string) decimal.Decimal {
	return PriceItem(cat, Item{PizzaID: pizzaID, Quantity: 1}).UnitPrice
}

// ReferencedIDs 收集一组购物车项引用的披萨与加料 id，供调用方按需加载目录
func ReferencedIDs(items []Item) (pizzaIDs, toppingIDs []string) {
	seenP := make(map[string]struct{})
	seenT := make(map[string]struct{})
	for _, it := range items {
		if _, ok := seenP[it.PizzaID]; !ok {
			seenP[it.PizzaID] = struct{}{}
			pizzaIDs = append(pizzaIDs, it.PizzaID)
		}
		for _, o := range it.Overrides {
			if _, ok := seenT[o.ToppingID]; !ok {
				seenT[o.ToppingID] = struct{}{}
				toppingIDs = append(toppingIDs, o.ToppingID)
			}
		}
	}
	return pizzaIDs, toppingIDs
}
