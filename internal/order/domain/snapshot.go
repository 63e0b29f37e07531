package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	pricing "github.com/wyfcoding/pizzashop/internal/pricing/domain"
)

// ToppingSnapshot 下单时冻结的配料名称与价格
type ToppingSnapshot struct {
	Name string
	Cost decimal.Decimal
}

type toppingWire struct {
	Name string      `json:"name"`
	Cost json.Number `json:"cost"`
}

// 解码时键名大小写不敏感，cost 可为数字或字符串
type toppingWireIn struct {
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

// EncodeToppings 编码为 [{"name":..,"cost":..}]，cost 为保留两位小数的 JSON 数字
func EncodeToppings(toppings []ToppingSnapshot) (string, error) {
	wire := make([]toppingWire, 0, len(toppings))
	for _, t := range toppings {
		wire = append(wire, toppingWire{Name: t.Name, Cost: json.Number(t.Cost.StringFixed(2))})
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to encode toppings: %w", err)
	}
	return string(b), nil
}

// DecodeToppings 解码配料快照，兼容 Name/Cost 键名与字符串价格。空串视为无配料
func DecodeToppings(raw string) ([]ToppingSnapshot, error) {
	if raw == "" {
		return []ToppingSnapshot{}, nil
	}
	var wire []toppingWireIn
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode toppings: %w", err)
	}
	out := make([]ToppingSnapshot, 0, len(wire))
	for _, w := range wire {
		out = append(out, ToppingSnapshot{Name: w.Name, Cost: w.Cost})
	}
	return out, nil
}

// SnapshotItems 把购物车报价冻结为订单条目。缺失的披萨名称为空、底价为 0，缺失的配料不出现
func SnapshotItems(orderID string, quote pricing.Quote, newID func() string) []OrderItem {
	items := make([]OrderItem, 0, len(quote.Items))
	for _, iq := range quote.Items {
		toppings := make([]ToppingSnapshot, 0, len(iq.Toppings))
		for _, t := range iq.Toppings {
			toppings = append(toppings, ToppingSnapshot{Name: t.Name, Cost: t.Cost})
		}
		items = append(items, OrderItem{
			ID:        newID(),
			OrderID:   orderID,
			PizzaName: iq.PizzaName,
			UnitPrice: iq.UnitPrice,
			Quantity:  iq.Quantity,
			Toppings:  toppings,
		})
	}
	return items
}
