package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pizzashop/internal/cart/application"
	"github.com/wyfcoding/pizzashop/pkg/middleware"
	"github.com/wyfcoding/pizzashop/pkg/response"
)

// CartHandler HTTP 处理器
// 负责处理当前用户购物车的请求，路由分组需已挂载鉴权
type CartHandler struct {
	app *application.CartManager
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(app *application.CartManager) *CartHandler {
	return &CartHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/cart")
	{
		api.GET("", h.GetCart)
		api.DELETE("", h.ClearCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:id", h.UpdateItem)
		api.DELETE("/items/:id", h.RemoveItem)
	}
}

// AddItemRequest 添加条目请求
type AddItemRequest struct {
	PizzaID         string   `json:"pizza_id" binding:"required"`
	Quantity        int      `json:"quantity" binding:"required"`
	AddedToppings   []string `json:"added_toppings"`
	RemovedToppings []string `json:"removed_toppings"`
}

// UpdateItemRequest 更新条目请求，调整集合整体替换
type UpdateItemRequest struct {
	Quantity        int      `json:"quantity" binding:"required"`
	AddedToppings   []string `json:"added_toppings"`
	RemovedToppings []string `json:"removed_toppings"`
}

// GetCart 获取购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.app.GetCart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// AddItem 添加条目
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	view, err := h.app.AddItem(c.Request.Context(), middleware.UserID(c), req.PizzaID, req.Quantity, req.AddedToppings, req.RemovedToppings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// UpdateItem 更新条目
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	view, err := h.app.UpdateItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Quantity, req.AddedToppings, req.RemovedToppings)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// RemoveItem 移除条目
func (h *CartHandler) RemoveItem(c *gin.Context) {
	view, err := h.app.RemoveItem(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	cleared, err := h.app.ClearCart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": cleared})
}
