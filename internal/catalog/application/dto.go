package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/catalog/domain"
)

// ToppingDTO 配料视图
type ToppingDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PizzaDTO 披萨视图，ComputedCost 为底价加默认配料
type PizzaDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Slug         string          `json:"slug"`
	BasePrice    decimal.Decimal `json:"base_price"`
	ComputedCost decimal.Decimal `json:"computed_cost"`
	ImageURL     string          `json:"image_url"`
	Toppings     []ToppingDTO    `json:"toppings"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toToppingDTO(t *domain.Topping) ToppingDTO {
	return ToppingDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Cost:        t.Cost,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
