package domain

import "time"

const (
	TopicItemAdded   = "cart.item.added"
	TopicItemUpdated = "cart.item.updated"
	TopicItemRemoved = "cart.item.removed"
	TopicCleared     = "cart.cleared"
)

// OverridePayload 事件中的配料调整
type OverridePayload struct {
	ToppingID string `json:"topping_id"`
	IsAdded   bool   `json:"is_added"`
}

// CartItemAddedEvent 购物车添加条目事件
type CartItemAddedEvent struct {
	CartID    string            `json:"cart_id"`
	UserID    string            `json:"user_id"`
	ItemID    string            `json:"item_id"`
	PizzaID   string            `json:"pizza_id"`
	Quantity  int               `json:"quantity"`
	Overrides []OverridePayload `json:"overrides"`
	Timestamp time.Time         `json:"timestamp"`
}

// CartItemUpdatedEvent 购物车条目更新事件
type CartItemUpdatedEvent struct {
	CartID    string            `json:"cart_id"`
	UserID    string            `json:"user_id"`
	ItemID    string            `json:"item_id"`
	Quantity  int               `json:"quantity"`
	Overrides []OverridePayload `json:"overrides"`
	Timestamp time.Time         `json:"timestamp"`
}

// CartItemRemovedEvent 购物车移除条目事件
type CartItemRemovedEvent struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID       string    `json:"cart_id"`
	UserID       string    `json:"user_id"`
	RemovedItems int64     `json:"removed_items"`
	Timestamp    time.Time `json:"timestamp"`
}

func overridePayloads(overrides []ToppingOverride) []OverridePayload {
	out := make([]OverridePayload, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, OverridePayload{ToppingID: o.ToppingID, IsAdded: o.IsAdded})
	}
	return out
}

// NewItemAddedEvent 构造条目添加事件
func NewItemAddedEvent(cart *Cart, item *CartItem) CartItemAddedEvent {
	return CartItemAddedEvent{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		ItemID:    item.ID,
		PizzaID:   item.PizzaID,
		Quantity:  item.Quantity,
		Overrides: overridePayloads(item.Overrides),
		Timestamp: time.Now().UTC(),
	}
}

// NewItemUpdatedEvent 构造条目更新事件
func NewItemUpdatedEvent(cart *Cart, item *CartItem) CartItemUpdatedEvent {
	return CartItemUpdatedEvent{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		ItemID:    item.ID,
		Quantity:  item.Quantity,
		Overrides: overridePayloads(item.Overrides),
		Timestamp: time.Now().UTC(),
	}
}
