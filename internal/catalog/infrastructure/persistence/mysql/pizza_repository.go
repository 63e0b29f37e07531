package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/pizzashop/internal/catalog/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"gorm.io/gorm"
)

type pizzaRepository struct {
	db *gorm.DB
}

// NewPizzaRepository 创建披萨仓储
func NewPizzaRepository(database *gorm.DB) domain.PizzaRepository {
	return &pizzaRepository{db: database}
}

func (r *pizzaRepository) preloadToppings(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Toppings", func(q *gorm.DB) *gorm.DB {
		return q.Order("position ASC")
	})
}

// Save 保存披萨并整体替换默认配料，调用方负责事务
func (r *pizzaRepository) Save(ctx context.Context, pizza *domain.Pizza) error {
	tx := db.Conn(ctx, r.db)
	model := pizzaFromDomain(pizza)

	if err := tx.Omit("Toppings").Save(model).Error; err != nil {
		logger.Error(ctx, "pizza_repository.save failed", "pizza_id", pizza.ID, "error", err)
		return fmt.Errorf("failed to save pizza: %w", err)
	}
	if err := tx.Where("pizza_id = ?", pizza.ID).Delete(&PizzaToppingModel{}).Error; err != nil {
		return fmt.Errorf("failed to reset pizza toppings: %w", err)
	}
	if len(pizza.DefaultToppingIDs) > 0 {
		rows := make([]PizzaToppingModel, 0, len(pizza.DefaultToppingIDs))
		for i, tid := range pizza.DefaultToppingIDs {
			rows = append(rows, PizzaToppingModel{PizzaID: pizza.ID, ToppingID: tid, Position: i})
		}
		if err := tx.Create(&rows).Error; err != nil {
			logger.Error(ctx, "pizza_repository.save toppings failed", "pizza_id", pizza.ID, "error", err)
			return fmt.Errorf("failed to save pizza toppings: %w", err)
		}
	}

	pizza.CreatedAt = model.CreatedAt
	pizza.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *pizzaRepository) first(ctx context.Context, query string, arg any) (*domain.Pizza, error) {
	var m PizzaModel
	err := r.preloadToppings(db.Conn(ctx, r.db)).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "pizza_repository.get failed", "query", query, "error", err)
		return nil, fmt.Errorf("failed to get pizza: %w", err)
	}
	return pizzaToDomain(&m), nil
}

func (r *pizzaRepository) GetByID(ctx context.Context, id string) (*domain.Pizza, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *pizzaRepository) GetBySlug(ctx context.Context, slug string) (*domain.Pizza, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *pizzaRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := db.Conn(ctx, r.db).Unscoped().Model(&PizzaModel{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func (r *pizzaRepository) List(ctx context.Context) ([]*domain.Pizza, error) {
	var models []PizzaModel
	if err := r.preloadToppings(db.Conn(ctx, r.db)).Order("name ASC").Find(&models).Error; err != nil {
		logger.Error(ctx, "pizza_repository.list failed", "error", err)
		return nil, fmt.Errorf("failed to list pizzas: %w", err)
	}
	return pizzasToDomain(models), nil
}

func (r *pizzaRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Pizza, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []PizzaModel
	if err := r.preloadToppings(db.Conn(ctx, r.db)).Where("id IN ?", ids).Find(&models).Error; err != nil {
		logger.Error(ctx, "pizza_repository.list_by_ids failed", "error", err)
		return nil, fmt.Errorf("failed to list pizzas: %w", err)
	}
	return pizzasToDomain(models), nil
}

func (r *pizzaRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&PizzaModel{})
	if res.Error != nil {
		logger.Error(ctx, "pizza_repository.delete failed", "pizza_id", id, "error", res.Error)
		return false, fmt.Errorf("failed to delete pizza: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func pizzasToDomain(models []PizzaModel) []*domain.Pizza {
	out := make([]*domain.Pizza, 0, len(models))
	for i := range models {
		out = append(out, pizzaToDomain(&models[i]))
	}
	return out
}
