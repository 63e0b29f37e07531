package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/pizzashop/internal/cart/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
)

// AddItemCommand 添加条目命令
type AddItemCommand struct {
	UserID   string
	PizzaID  string
	Quantity int
	Added    []string
	Removed  []string
}

// UpdateItemCommand 更新条目命令，调整集合整体替换
type UpdateItemCommand struct {
	UserID   string
	ItemID   string
	Quantity int
	Added    []string
	Removed  []string
}

// CartCommandService 购物车命令服务。每个操作在单个事务中完成，返回按实时目录重新计价的购物车
type CartCommandService struct {
	repo      domain.CartRepository
	catalog   domain.CatalogReader
	publisher domain.EventPublisher
	tx        db.Transactor
	query     *CartQueryService
	metrics   *metrics.Metrics
}

// NewCartCommandService 创建购物车命令服务实例，m 可为空
func NewCartCommandService(
	repo domain.CartRepository,
	catalog domain.CatalogReader,
	publisher domain.EventPublisher,
	tx db.Transactor,
	m *metrics.Metrics,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		tx:        tx,
		query:     NewCartQueryService(repo, catalog),
		metrics:   m,
	}
}

// overrides 生成调整集合，未知配料被忽略。pizzaID 非空时同时校验披萨存在
func (s *CartCommandService) overrides(ctx context.Context, pizzaID string, added, removed []string) ([]domain.ToppingOverride, error) {
	ids := make([]string, 0, len(added)+len(removed))
	ids = append(ids, added...)
	ids = append(ids, removed...)

	var pizzaIDs []string
	if pizzaID != "" {
		pizzaIDs = []string{pizzaID}
	}
	cat, err := s.catalog.LoadPricingCatalog(ctx, pizzaIDs, ids)
	if err != nil {
		return nil, err
	}
	if pizzaID != "" {
		if _, ok := cat.Pizza(pizzaID); !ok {
			return nil, errorx.NotFound("pizza %s not found", pizzaID)
		}
	}
	return domain.BuildOverrides(added, removed, func(id string) bool {
		_, ok := cat.Topping(id)
		return ok
	}), nil
}

// mutate 在事务中锁定用户购物车后执行 fn，提交前重新读取并计价
func (s *CartCommandService) mutate(ctx context.Context, op, userID string, fn func(ctx context.Context, cart *domain.Cart) error) (view *CartView, err error) {
	defer func() { s.metrics.RecordCartOperation(op, err) }()

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.repo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(ctx, cart); err != nil {
			return err
		}
		if cart, err = s.repo.GetByUserID(ctx, userID); err != nil {
			return err
		}
		view, err = s.query.view(ctx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddItem 添加条目。数量越界返回 InvalidInput，披萨不存在返回 NotFound
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) (*CartView, error) {
	if err := domain.ValidateQuantity(cmd.Quantity); err != nil {
		s.metrics.RecordCartOperation("add_item", err)
		return nil, err
	}

	return s.mutate(ctx, "add_item", cmd.UserID, func(ctx context.Context, cart *domain.Cart) error {
		overrides, err := s.overrides(ctx, cmd.PizzaID, cmd.Added, cmd.Removed)
		if err != nil {
			return err
		}
		item := &domain.CartItem{
			ID:        uuid.NewString(),
			CartID:    cart.ID,
			PizzaID:   cmd.PizzaID,
			Quantity:  cmd.Quantity,
			Overrides: overrides,
		}
		if err := s.repo.AddItem(ctx, item); err != nil {
			return err
		}
		logger.Info(ctx, "cart item added", "cart_id", cart.ID, "item_id", item.ID, "pizza_id", item.PizzaID, "quantity", item.Quantity)
		return s.publisher.Publish(ctx, domain.TopicItemAdded, cart.ID, domain.NewItemAddedEvent(cart, item))
	})
}

// UpdateItem 更新条目数量并整体替换调整集合。披萨已下架的条目仍可修改
func (s *CartCommandService) UpdateItem(ctx context.Context, cmd UpdateItemCommand) (*CartView, error) {
	if err := domain.ValidateQuantity(cmd.Quantity); err != nil {
		s.metrics.RecordCartOperation("update_item", err)
		return nil, err
	}

	return s.mutate(ctx, "update_item", cmd.UserID, func(ctx context.Context, cart *domain.Cart) error {
		item := cart.Item(cmd.ItemID)
		if item == nil {
			return errorx.NotFound("cart item %s not found", cmd.ItemID)
		}
		overrides, err := s.overrides(ctx, "", cmd.Added, cmd.Removed)
		if err != nil {
			return err
		}
		item.Quantity = cmd.Quantity
		item.Overrides = overrides
		if err := s.repo.ReplaceItem(ctx, item); err != nil {
			return err
		}
		logger.Info(ctx, "cart item updated", "cart_id", cart.ID, "item_id", item.ID, "quantity", item.Quantity)
		return s.publisher.Publish(ctx, domain.TopicItemUpdated, cart.ID, domain.NewItemUpdatedEvent(cart, item))
	})
}

// RemoveItem 移除条目及其调整
func (s *CartCommandService) RemoveItem(ctx context.Context, userID, itemID string) (*CartView, error) {
	return s.mutate(ctx, "remove_item", userID, func(ctx context.Context, cart *domain.Cart) error {
		ok, err := s.repo.RemoveItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return errorx.NotFound("cart item %s not found", itemID)
		}
		logger.Info(ctx, "cart item removed", "cart_id", cart.ID, "item_id", itemID)
		return s.publisher.Publish(ctx, domain.TopicItemRemoved, cart.ID, domain.CartItemRemovedEvent{
			CartID:    cart.ID,
			UserID:    cart.UserID,
			ItemID:    itemID,
			Timestamp: time.Now().UTC(),
		})
	})
}

// ClearCart 清空购物车条目。用户没有购物车时返回 false，可重复调用。
// ctx 上有事务时加入该事务，清空随外层一起提交
func (s *CartCommandService) ClearCart(ctx context.Context, userID string) (cleared bool, err error) {
	defer func() { s.metrics.RecordCartOperation("clear", err) }()

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.repo.LockByUserID(ctx, userID)
		if err != nil || cart == nil {
			return err
		}
		n, err := s.repo.ClearItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		cleared = true
		logger.Info(ctx, "cart cleared", "cart_id", cart.ID, "removed_items", n)
		return s.publisher.Publish(ctx, domain.TopicCleared, cart.ID, domain.CartClearedEvent{
			CartID:       cart.ID,
			UserID:       cart.UserID,
			RemovedItems: n,
			Timestamp:    time.Now().UTC(),
		})
	})
	if err != nil {
		return false, err
	}
	return cleared, nil
}
