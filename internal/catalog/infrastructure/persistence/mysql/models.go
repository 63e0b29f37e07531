package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/catalog/domain"
	"gorm.io/gorm"
)

// PizzaModel 披萨表
type PizzaModel struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey"`
	Name        string          `gorm:"column:name;type:varchar(100);not null"`
	Description string          `gorm:"column:description;type:text"`
	Slug        string          `gorm:"column:slug;type:varchar(120);uniqueIndex;not null"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:decimal(18,2);not null"`
	ImageURL    string          `gorm:"column:image_url;type:varchar(512)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt       `gorm:"index"`
	Toppings    []PizzaToppingModel `gorm:"foreignKey:PizzaID"`
}

func (PizzaModel) TableName() string { return "pizzas" }

// PizzaToppingModel 披萨默认配料关联，Position 保持添加顺序
type PizzaToppingModel struct {
	PizzaID   string `gorm:"column:pizza_id;type:varchar(36);primaryKey"`
	ToppingID string `gorm:"column:topping_id;type:varchar(36);primaryKey"`
	Position  int    `gorm:"column:position;not null"`
}

func (PizzaToppingModel) TableName() string { return "pizza_toppings" }

// ToppingModel 配料表
type ToppingModel struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey"`
	Name        string          `gorm:"column:name;type:varchar(100);not null"`
	Description string          `gorm:"column:description;type:text"`
	Cost        decimal.Decimal `gorm:"column:cost;type:decimal(18,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (ToppingModel) TableName() string { return "toppings" }

// Models 需要迁移的表
func Models() []any {
	return []any{&PizzaModel{}, &PizzaToppingModel{}, &ToppingModel{}}
}

func pizzaToDomain(m *PizzaModel) *domain.Pizza {
	ids := make([]string, 0, len(m.Toppings))
	for _, t := range m.Toppings {
		ids = append(ids, t.ToppingID)
	}
	return &domain.Pizza{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		Slug:              m.Slug,
		BasePrice:         m.BasePrice,
		ImageURL:          m.ImageURL,
		DefaultToppingIDs: ids,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func pizzaFromDomain(p *domain.Pizza) *PizzaModel {
	return &PizzaModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Slug:        p.Slug,
		BasePrice:   p.BasePrice,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toppingToDomain(m *ToppingModel) *domain.Topping {
	return &domain.Topping{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Cost:        m.Cost,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toppingFromDomain(t *domain.Topping) *ToppingModel {
	return &ToppingModel{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Cost:        t.Cost,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
