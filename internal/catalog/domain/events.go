package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicPizzaSaved     = "catalog.pizza.saved"
	TopicPizzaDeleted   = "catalog.pizza.deleted"
	TopicToppingSaved   = "catalog.topping.saved"
	TopicToppingDeleted = "catalog.topping.deleted"
)

// PizzaSavedEvent 披萨创建或更新事件
type PizzaSavedEvent struct {
	PizzaID           string          `json:"pizza_id"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	BasePrice         decimal.Decimal `json:"base_price"`
	DefaultToppingIDs []string        `json:"default_topping_ids"`
	Created           bool            `json:"created"`
	Timestamp         time.Time       `json:"timestamp"`
}

// PizzaDeletedEvent 披萨删除事件
type PizzaDeletedEvent struct {
	PizzaID   string    `json:"pizza_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ToppingSavedEvent 配料创建或更新事件
type ToppingSavedEvent struct {
	ToppingID string          `json:"topping_id"`
	Name      string          `json:"name"`
	Cost      decimal.Decimal `json:"cost"`
	Created   bool            `json:"created"`
	Timestamp time.Time       `json:"timestamp"`
}

// ToppingDeletedEvent 配料删除事件
type ToppingDeletedEvent struct {
	ToppingID string    `json:"topping_id"`
	Timestamp time.Time `json:"timestamp"`
}
