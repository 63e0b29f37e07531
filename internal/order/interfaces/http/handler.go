package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pizzashop/internal/order/application"
	"github.com/wyfcoding/pizzashop/pkg/middleware"
	"github.com/wyfcoding/pizzashop/pkg/response"
)

// IdempotencyKeyHeader 下单幂等键请求头
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler HTTP 处理器
// 负责处理与订单相关的 HTTP 请求
type OrderHandler struct {
	cmd   *application.OrderCommandService
	query *application.OrderQueryService
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(cmd *application.OrderCommandService, query *application.OrderQueryService) *OrderHandler {
	return &OrderHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册路由。user 分组需已挂载鉴权，admin 分组还需角色校验
func (h *OrderHandler) RegisterRoutes(user, admin *gin.RouterGroup) {
	api := user.Group("/orders")
	{
		api.GET("", h.ListOrders)         // 当前用户订单列表
		api.POST("", h.CreateOrder)       // 由购物车下单
		api.GET("/:id", h.GetOrder)       // 获取订单详情
		api.DELETE("/:id", h.CancelOrder) // 取消订单
	}

	admin.PUT("/orders/:id/status", h.UpdateStatus)
	admin.GET("/admin/orders", h.AdminListOrders)
}

// UpdateStatusRequest 更新状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func actor(c *gin.Context) application.Actor {
	return application.Actor{UserID: middleware.UserID(c), Admin: middleware.IsAdmin(c)}
}

// CreateOrder 由购物车下单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	dto, err := h.cmd.CreateOrderFromCart(c.Request.Context(), middleware.UserID(c), c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, dto)
}

// GetOrder 获取订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	dto, err := h.query.GetOrder(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// ListOrders 当前用户订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	dtos, err := h.query.ListUserOrders(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dtos)
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	if err := h.cmd.CancelOrder(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStatus 更新订单状态
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	dto, err := h.cmd.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// AdminListOrders 管理端订单列表
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.query.ListOrders(c.Request.Context(), application.ListOrdersQuery{
		Status:   c.Query("status"),
		UserID:   c.Query("user_id"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
