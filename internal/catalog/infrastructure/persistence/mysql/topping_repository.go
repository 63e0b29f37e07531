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

type toppingRepository struct {
	db *gorm.DB
}

// NewToppingRepository 创建配料仓储
func NewToppingRepository(database *gorm.DB) domain.ToppingRepository {
	return &toppingRepository{db: database}
}

func (r *toppingRepository) Save(ctx context.Context, topping *domain.Topping) error {
	model := toppingFromDomain(topping)
	if err := db.Conn(ctx, r.db).Save(model).Error; err != nil {
		logger.Error(ctx, "topping_repository.save failed", "topping_id", topping.ID, "error", err)
		return fmt.Errorf("failed to save topping: %w", err)
	}
	topping.CreatedAt = model.CreatedAt
	topping.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *toppingRepository) GetByID(ctx context.Context, id string) (*domain.Topping, error) {
	var m ToppingModel
	err := db.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "topping_repository.get failed", "topping_id", id, "error", err)
		return nil, fmt.Errorf("failed to get topping: %w", err)
	}
	return toppingToDomain(&m), nil
}

func (r *toppingRepository) List(ctx context.Context) ([]*domain.Topping, error) {
	var models []ToppingModel
	if err := db.Conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		logger.Error(ctx, "topping_repository.list failed", "error", err)
		return nil, fmt.Errorf("failed to list toppings: %w", err)
	}
	return toppingsToDomain(models), nil
}

func (r *toppingRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Topping, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ToppingModel
	if err := db.Conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		logger.Error(ctx, "topping_repository.list_by_ids failed", "error", err)
		return nil, fmt.Errorf("failed to list toppings: %w", err)
	}
	return toppingsToDomain(models), nil
}

func (r *toppingRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&ToppingModel{})
	if res.Error != nil {
		logger.Error(ctx, "topping_repository.delete failed", "topping_id", id, "error", res.Error)
		return false, fmt.Errorf("failed to delete topping: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func toppingsToDomain(models []ToppingModel) []*domain.Topping {
	out := make([]*domain.Topping, 0, len(models))
	for i := range models {
		out = append(out, toppingToDomain(&models[i]))
	}
	return out
}
