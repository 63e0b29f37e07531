package application

import (
	"context"

	"github.com/wyfcoding/pizzashop/internal/order/domain"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/utils"
)

// OrderQueryService 处理所有订单相关的查询操作（Queries）。
type OrderQueryService struct {
	repo     domain.OrderRepository
	readRepo domain.OrderReadRepository
}

// NewOrderQueryService 构造函数。readRepo 可为空
func NewOrderQueryService(repo domain.OrderRepository, readRepo domain.OrderReadRepository) *OrderQueryService {
	return &OrderQueryService{
		repo:     repo,
		readRepo: readRepo,
	}
}

// load 先查缓存再查库，缓存故障只记日志
func (s *OrderQueryService) load(ctx context.Context, orderID string) (*domain.Order, error) {
	if s.readRepo != nil {
		cached, err := s.readRepo.Get(ctx, orderID)
		if err != nil {
			logger.Warn(ctx, "order cache read failed", "order_id", orderID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil || order == nil {
		return nil, err
	}
	if s.readRepo != nil {
		if err := s.readRepo.Save(ctx, order); err != nil {
			logger.Warn(ctx, "order cache write failed", "order_id", orderID, "error", err)
		}
	}
	return order, nil
}

// GetOrder 获取订单详情。非管理员读取他人订单返回 Forbidden
func (s *OrderQueryService) GetOrder(ctx context.Context, orderID string, actor Actor) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errorx.NotFound("order %s not found", orderID)
	}
	if !actor.canAccess(order) {
		return nil, errorx.Forbidden("order %s belongs to another user", orderID)
	}
	return toOrderDTO(order), nil
}

// ListUserOrders 用户订单列表，按创建时间倒序
func (s *OrderQueryService) ListUserOrders(ctx context.Context, userID string) ([]OrderListDTO, error) {
	summaries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toOrderListDTOs(summaries, false), nil
}

// ListOrders 管理端订单列表，支持状态与用户过滤
func (s *OrderQueryService) ListOrders(ctx context.Context, q ListOrdersQuery) (*OrderPage, error) {
	var filter domain.ListFilter
	if q.Status != "" {
		st, err := domain.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}
	filter.UserID = q.UserID

	page := utils.NewPagination(q.Page, q.PageSize, 0)
	summaries, total, err := s.repo.List(ctx, filter, page.Offset(), page.Limit())
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders:     toOrderListDTOs(summaries, true),
		Pagination: utils.NewPagination(page.Page, page.PageSize, total),
	}, nil
}
