package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/catalog/application"
	"github.com/wyfcoding/pizzashop/pkg/response"
)

// CatalogHandler HTTP 处理器
// 负责处理披萨与配料的查询和管理请求
type CatalogHandler struct {
	cmd   *application.CatalogCommandService
	query *application.CatalogQueryService
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(cmd *application.CatalogCommandService, query *application.CatalogQueryService) *CatalogHandler {
	return &CatalogHandler{cmd: cmd, query: query}
}

// RegisterRoutes 注册路由，admin 分组需已挂载鉴权与角色校验
func (h *CatalogHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	pizzas := public.Group("/pizzas")
	{
		pizzas.GET("", h.ListPizzas)
		pizzas.GET("/:id", h.GetPizza)
		pizzas.GET("/slug/:slug", h.GetPizzaBySlug)
	}
	toppings := public.Group("/toppings")
	{
		toppings.GET("", h.ListToppings)
		toppings.GET("/:id", h.GetTopping)
	}

	adminPizzas := admin.Group("/pizzas")
	{
		adminPizzas.POST("", h.CreatePizza)
		adminPizzas.PUT("/:id", h.UpdatePizza)
		adminPizzas.DELETE("/:id", h.DeletePizza)
	}
	adminToppings := admin.Group("/toppings")
	{
		adminToppings.POST("", h.CreateTopping)
		adminToppings.PUT("/:id", h.UpdateTopping)
		adminToppings.DELETE("/:id", h.DeleteTopping)
	}
}

// PizzaRequest 创建或更新披萨请求
type PizzaRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	ImageURL    string          `json:"image_url"`
	ToppingIDs  []string        `json:"topping_ids"`
}

func (r PizzaRequest) command() application.SavePizzaCommand {
	return application.SavePizzaCommand{
		Name:        r.Name,
		Description: r.Description,
		BasePrice:   r.BasePrice,
		ImageURL:    r.ImageURL,
		ToppingIDs:  r.ToppingIDs,
	}
}

// ToppingRequest 创建或更新配料请求
type ToppingRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

func (r ToppingRequest) command() application.SaveToppingCommand {
	return application.SaveToppingCommand{
		Name:        r.Name,
		Description: r.Description,
		Cost:        r.Cost,
	}
}

// ListPizzas 披萨列表
func (h *CatalogHandler) ListPizzas(c *gin.Context) {
	dtos, err := h.query.ListPizzas(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dtos)
}

// GetPizza 披萨详情
func (h *CatalogHandler) GetPizza(c *gin.Context) {
	dto, err := h.query.GetPizza(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// GetPizzaBySlug 按 slug 获取披萨
func (h *CatalogHandler) GetPizzaBySlug(c *gin.Context) {
	dto, err := h.query.GetPizzaBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// CreatePizza 创建披萨
func (h *CatalogHandler) CreatePizza(c *gin.Context) {
	var req PizzaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.cmd.CreatePizza(ctx, req.command())
	if err != nil {
		response.Error(c, err)
		return
	}
	dto, err := h.query.GetPizza(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, dto)
}

// UpdatePizza 更新披萨
func (h *CatalogHandler) UpdatePizza(c *gin.Context) {
	var req PizzaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.cmd.UpdatePizza(ctx, id, req.command()); err != nil {
		response.Error(c, err)
		return
	}
	dto, err := h.query.GetPizza(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// DeletePizza 删除披萨
func (h *CatalogHandler) DeletePizza(c *gin.Context) {
	if err := h.cmd.DeletePizza(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListToppings 配料列表
func (h *CatalogHandler) ListToppings(c *gin.Context) {
	dtos, err := h.query.ListToppings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dtos)
}

// GetTopping 配料详情
func (h *CatalogHandler) GetTopping(c *gin.Context) {
	dto, err := h.query.GetTopping(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// CreateTopping 创建配料
func (h *CatalogHandler) CreateTopping(c *gin.Context) {
	var req ToppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.cmd.CreateTopping(ctx, req.command())
	if err != nil {
		response.Error(c, err)
		return
	}
	dto, err := h.query.GetTopping(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, dto)
}

// UpdateTopping 更新配料
func (h *CatalogHandler) UpdateTopping(c *gin.Context) {
	var req ToppingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.cmd.UpdateTopping(ctx, id, req.command()); err != nil {
		response.Error(c, err)
		return
	}
	dto, err := h.query.GetTopping(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// DeleteTopping 删除配料
func (h *CatalogHandler) DeleteTopping(c *gin.Context) {
	if err := h.cmd.DeleteTopping(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
