package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	cartapp "github.com/wyfcoding/pizzashop/internal/cart/application"
	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/idgen"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
)

// CartService 下单依赖的购物车能力，两者都须加入调用方事务
type CartService interface {
	PriceForCheckout(ctx context.Context, userID string) (*cartapp.PricedCart, error)
	ClearCart(ctx context.Context, userID string) (bool, error)
}

// Options 可选依赖，零值均可用
type Options struct {
	ReadRepo       domain.OrderReadRepository
	Idempotency    domain.IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        *metrics.Metrics
}

// OrderCommandService 处理订单写操作（Commands）
type OrderCommandService struct {
	repo      domain.OrderRepository
	cart      CartService
	publisher domain.EventPublisher
	tx        db.Transactor
	ids       idgen.Generator
	opts      Options
}

// NewOrderCommandService 创建订单命令服务实例
func NewOrderCommandService(
	repo domain.OrderRepository,
	cart CartService,
	publisher domain.EventPublisher,
	tx db.Transactor,
	ids idgen.Generator,
	opts Options,
) *OrderCommandService {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &OrderCommandService{
		repo:      repo,
		cart:      cart,
		publisher: publisher,
		tx:        tx,
		ids:       ids,
		opts:      opts,
	}
}

// CreateOrderFromCart 把用户购物车冻结为订单并清空购物车。
// idempotencyKey 非空时同一键的重放返回首次创建的订单
func (s *OrderCommandService) CreateOrderFromCart(ctx context.Context, userID, idempotencyKey string) (*OrderDTO, error) {
	if idempotencyKey == "" || s.opts.Idempotency == nil {
		order, err := s.checkout(ctx, userID)
		if err != nil {
			return nil, err
		}
		return toOrderDTO(order), nil
	}

	key := userID + ":" + idempotencyKey
	reserved, existing, err := s.opts.Idempotency.Reserve(ctx, key, s.opts.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !reserved {
		if existing == "" {
			return nil, errorx.InvalidState("checkout with this idempotency key is in progress")
		}
		logger.Info(ctx, "checkout replayed", "idempotency_key", idempotencyKey, "order_id", existing)
		order, err := s.repo.Get(ctx, existing)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, errorx.NotFound("order %s not found", existing)
		}
		return toOrderDTO(order), nil
	}

	order, err := s.checkout(ctx, userID)
	if err != nil {
		if rerr := s.opts.Idempotency.Release(ctx, key); rerr != nil {
			logger.Warn(ctx, "failed to release idempotency key", "error", rerr)
		}
		return nil, err
	}
	if err := s.opts.Idempotency.Complete(ctx, key, order.ID, s.opts.IdempotencyTTL); err != nil {
		logger.Warn(ctx, "failed to record idempotency key", "order_id", order.ID, "error", err)
	}
	return toOrderDTO(order), nil
}

func (s *OrderCommandService) checkout(ctx context.Context, userID string) (*domain.Order, error) {
	order := &domain.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: domain.StatusNew,
	}

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		priced, err := s.cart.PriceForCheckout(ctx, userID)
		if err != nil {
			return err
		}
		if priced == nil || priced.Cart.IsEmpty() {
			return errorx.InvalidState("cart is empty")
		}

		order.OrderNumber = s.ids.NextOrderNumber()
		order.TotalAmount = priced.Quote.Total
		order.Items = domain.SnapshotItems(order.ID, priced.Quote, uuid.NewString)

		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, domain.TopicOrderCreated, order.ID, domain.NewOrderCreatedEvent(order)); err != nil {
			return err
		}
		_, err = s.cart.ClearCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, errorx.NotFound("order %s not found", order.ID)
	}

	s.opts.Metrics.RecordOrderCreated(created.TotalAmount.InexactFloat64())
	logger.Info(ctx, "order created",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"total", created.TotalAmount.StringFixed(2),
		"items", len(created.Items),
	)
	return created, nil
}

// UpdateStatus 设置订单状态。不校验流转顺序，仅供管理员使用
func (s *OrderCommandService) UpdateStatus(ctx context.Context, orderID, status string) (*OrderDTO, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return errorx.NotFound("order %s not found", orderID)
		}
		if _, err := s.repo.UpdateStatus(ctx, orderID, st); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.TopicOrderStatusChanged, orderID, domain.OrderStatusChangedEvent{
			OrderID:    orderID,
			UserID:     order.UserID,
			OldStatus:  order.Status.String(),
			NewStatus:  st.String(),
			OccurredOn: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, orderID)
	s.opts.Metrics.RecordStatusChange(st.String())
	logger.Info(ctx, "order status changed", "order_id", orderID, "status", st.String())

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errorx.NotFound("order %s not found", orderID)
	}
	return toOrderDTO(order), nil
}

// CancelOrder 取消订单（软删除），仅 New 与 Preparing 状态可取消
func (s *OrderCommandService) CancelOrder(ctx context.Context, orderID string, actor Actor) error {
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return errorx.NotFound("order %s not found", orderID)
		}
		if !actor.canAccess(order) {
			return errorx.Forbidden("order %s belongs to another user", orderID)
		}
		if !order.CanBeCancelled() {
			return errorx.InvalidState("cannot cancel order in current status")
		}
		if _, err := s.repo.SoftDelete(ctx, orderID); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.TopicOrderCancelled, orderID, domain.OrderCancelledEvent{
			OrderID:    orderID,
			UserID:     order.UserID,
			Status:     order.Status.String(),
			OccurredOn: time.Now().UTC(),
		})
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, orderID)
	s.opts.Metrics.RecordOrderCancelled()
	logger.Info(ctx, "order cancelled", "order_id", orderID)
	return nil
}

func (s *OrderCommandService) invalidate(ctx context.Context, orderID string) {
	if s.opts.ReadRepo == nil {
		return
	}
	if err := s.opts.ReadRepo.Delete(ctx, orderID); err != nil {
		logger.Warn(ctx, "order cache invalidation failed", "order_id", orderID, "error", err)
	}
}
