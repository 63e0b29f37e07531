package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/pizzashop/internal/cart/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"gorm.io/gorm"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(database *gorm.DB) domain.CartRepository {
	return &cartRepository{db: database}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	tx := db.Conn(ctx, r.db)
	m := &CartModel{ID: uuid.NewString(), UserID: userID}
	if err := db.InsertIgnore(tx, m, "user_id"); err != nil {
		logger.Error(ctx, "cart_repository.get_or_create failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	_, inTx := db.TxFromContext(ctx)
	cart, err := r.find(ctx, userID, inTx)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("cart for user %s vanished after upsert", userID)
	}
	return cart, nil
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.find(ctx, userID, false)
}

func (r *cartRepository) LockByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.find(ctx, userID, true)
}

func (r *cartRepository) find(ctx context.Context, userID string, lock bool) (*domain.Cart, error) {
	tx := db.Conn(ctx, r.db)
	q := tx
	if lock {
		q = db.ForUpdate(tx)
	}

	var m CartModel
	err := q.Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "cart_repository.get failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var items []CartItemModel
	err = tx.Preload("Toppings", func(q *gorm.DB) *gorm.DB {
		return q.Order("position ASC")
	}).Where("cart_id = ?", m.ID).Order("created_at ASC, id ASC").Find(&items).Error
	if err != nil {
		logger.Error(ctx, "cart_repository.get items failed", "cart_id", m.ID, "error", err)
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	return cartToDomain(&m, items), nil
}

func (r *cartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	tx := db.Conn(ctx, r.db)
	m := &CartItemModel{
		ID:       item.ID,
		CartID:   item.CartID,
		PizzaID:  item.PizzaID,
		Quantity: item.Quantity,
	}
	if err := tx.Omit("Toppings").Create(m).Error; err != nil {
		logger.Error(ctx, "cart_repository.add_item failed", "cart_id", item.CartID, "error", err)
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	if err := r.insertOverrides(ctx, tx, item); err != nil {
		return err
	}
	item.CreatedAt = m.CreatedAt
	item.UpdatedAt = m.UpdatedAt
	return r.touch(tx, item.CartID)
}

func (r *cartRepository) ReplaceItem(ctx context.Context, item *domain.CartItem) error {
	tx := db.Conn(ctx, r.db)
	res := tx.Model(&CartItemModel{}).
		Where("id = ? AND cart_id = ?", item.ID, item.CartID).
		Update("quantity", item.Quantity)
	if res.Error != nil {
		logger.Error(ctx, "cart_repository.replace_item failed", "item_id", item.ID, "error", res.Error)
		return fmt.Errorf("failed to update cart item: %w", res.Error)
	}
	if err := tx.Where("cart_item_id = ?", item.ID).Delete(&CartItemToppingModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear item overrides: %w", err)
	}
	if err := r.insertOverrides(ctx, tx, item); err != nil {
		return err
	}
	return r.touch(tx, item.CartID)
}

func (r *cartRepository) insertOverrides(ctx context.Context, tx *gorm.DB, item *domain.CartItem) error {
	rows := overrideModels(item)
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		logger.Error(ctx, "cart_repository.save overrides failed", "item_id", item.ID, "error", err)
		return fmt.Errorf("failed to save item overrides: %w", err)
	}
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID string) (bool, error) {
	tx := db.Conn(ctx, r.db)
	if err := tx.Where("cart_item_id = ?", itemID).Delete(&CartItemToppingModel{}).Error; err != nil {
		return false, fmt.Errorf("failed to delete item overrides: %w", err)
	}
	res := tx.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&CartItemModel{})
	if res.Error != nil {
		logger.Error(ctx, "cart_repository.remove_item failed", "item_id", itemID, "error", res.Error)
		return false, fmt.Errorf("failed to delete cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.touch(tx, cartID)
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID string) (int64, error) {
	tx := db.Conn(ctx, r.db)
	sub := tx.Model(&CartItemModel{}).Select("id").Where("cart_id = ?", cartID)
	if err := tx.Where("cart_item_id IN (?)", sub).Delete(&CartItemToppingModel{}).Error; err != nil {
		return 0, fmt.Errorf("failed to delete item overrides: %w", err)
	}
	res := tx.Where("cart_id = ?", cartID).Delete(&CartItemModel{})
	if res.Error != nil {
		logger.Error(ctx, "cart_repository.clear failed", "cart_id", cartID, "error", res.Error)
		return 0, fmt.Errorf("failed to clear cart: %w", res.Error)
	}
	return res.RowsAffected, r.touch(tx, cartID)
}

func (r *cartRepository) touch(tx *gorm.DB, cartID string) error {
	if err := tx.Model(&CartModel{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}
