// Package domain 包含商品目录（披萨与配料）的领域模型
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pricing "github.com/wyfcoding/pizzashop/internal/pricing/domain"
)

// Pizza 披萨
type Pizza struct {
	ID          string
	Name        string
	Description string
	Slug        string
	BasePrice   decimal.Decimal
	ImageURL    string
	// 默认配料 id，保持添加顺序
	DefaultToppingIDs []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Topping 配料
type Topping struct {
	ID          string
	Name        string
	Description string
	Cost        decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToPricing 转为计价引擎使用的值对象
func (p *Pizza) ToPricing() pricing.Pizza {
	return pricing.Pizza{
		ID:                p.ID,
		Name:              p.Name,
		BasePrice:         p.BasePrice,
		DefaultToppingIDs: append([]string(nil), p.DefaultToppingIDs...),
	}
}

// ToPricing 转为计价引擎使用的值对象
func (t *Topping) ToPricing() pricing.Topping {
	return pricing.Topping{ID: t.ID, Name: t.Name, Cost: t.Cost}
}

// PizzaRepository 披萨仓储接口。查询不到时返回 nil, nil
type PizzaRepository interface {
	Save(ctx context.Context, pizza *Pizza) error
	GetByID(ctx context.Context, id string) (*Pizza, error)
	GetBySlug(ctx context.Context, slug string) (*Pizza, error)
	// SlugExists 包含已软删除的记录
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]*Pizza, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Pizza, error)
	// Delete 软删除，记录不存在时返回 false
	Delete(ctx context.Context, id string) (bool, error)
}

// ToppingRepository 配料仓储接口。查询不到时返回 nil, nil
type ToppingRepository interface {
	Save(ctx context.Context, topping *Topping) error
	GetByID(ctx context.Context, id string) (*Topping, error)
	List(ctx context.Context) ([]*Topping, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Topping, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EventPublisher 事件发布接口，ctx 上有事务时随事务提交
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// DescriptionSource 描述为空时提供占位文案
type DescriptionSource interface {
	Fetch(ctx context.Context) (string, error)
}
