package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartapp "github.com/wyfcoding/pizzashop/internal/cart/application"
	cartmysql "github.com/wyfcoding/pizzashop/internal/cart/infrastructure/persistence/mysql"
	catalogapp "github.com/wyfcoding/pizzashop/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/pizzashop/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/pizzashop/internal/order/application"
	ordermysql "github.com/wyfcoding/pizzashop/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/pizzashop/internal/order/interfaces/http"
	"github.com/wyfcoding/pizzashop/pkg/db/dbtest"
	"github.com/wyfcoding/pizzashop/pkg/idgen"
	"github.com/wyfcoding/pizzashop/pkg/middleware"
	"github.com/wyfcoding/pizzashop/pkg/outbox"
)

const secret = "order-secret"

type env struct {
	router  *gin.Engine
	carts   *cartapp.CartManager
	pizzaID string
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	models := append(catalogmysql.Models(), cartmysql.Models()...)
	models = append(models, ordermysql.Models()...)
	d := dbtest.New(t, append(models, &outbox.Message{})...)
	publisher := outbox.NewPublisher(d)
	pizzas := catalogmysql.NewPizzaRepository(d.DB)
	toppings := catalogmysql.NewToppingRepository(d.DB)

	catalog := catalogapp.NewCatalogCommandService(pizzas, toppings, publisher, d, nil)
	pizzaID, err := catalog.CreatePizza(context.Background(), catalogapp.SavePizzaCommand{
		Name: "Plain", BasePrice: decimal.RequireFromString("7.50"),
	})
	require.NoError(t, err)

	carts := cartapp.NewCartManager(cartmysql.NewCartRepository(d.DB), catalogapp.NewCatalogQueryService(pizzas, toppings), publisher, d, nil)
	ids, err := idgen.NewSnowflake(2)
	require.NoError(t, err)
	repo := ordermysql.NewOrderRepository(d.DB)

	handler := orderhttp.NewOrderHandler(
		application.NewOrderCommandService(repo, carts, publisher, d, ids, application.Options{}),
		application.NewOrderQueryService(repo, nil),
	)

	r := gin.New()
	user := r.Group("/api/v1", middleware.JWTAuth(secret, ""))
	admin := r.Group("/api/v1", middleware.JWTAuth(secret, ""), middleware.RequireRole(middleware.RoleAdmin))
	handler.RegisterRoutes(user, admin)
	return &env{router: r, carts: carts, pizzaID: pizzaID}
}

func (e *env) call(t *testing.T, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := middleware.SignToken(secret, "", userID, role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) checkout(t *testing.T, userID string) application.OrderDTO {
	t.Helper()
	_, err := e.carts.AddItem(context.Background(), userID, e.pizzaID, 2, nil, nil)
	require.NoError(t, err)

	rec := e.call(t, http.MethodPost, "/api/v1/orders", userID, "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order application.OrderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	return order
}

func TestOrdersRequireToken(t *testing.T) {
	e := setup(t)
	assert.Equal(t, http.StatusUnauthorized, e.call(t, http.MethodGet, "/api/v1/orders", "", "", nil).Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	e := setup(t)
	rec := e.call(t, http.MethodPost, "/api/v1/orders", "user-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderFlow(t *testing.T) {
	e := setup(t)
	order := e.checkout(t, "user-1")
	assert.Equal(t, "15.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "New", order.Status)

	rec := e.call(t, http.MethodGet, "/api/v1/orders", "user-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []application.OrderListDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, order.ID, list[0].ID)

	rec = e.call(t, http.MethodGet, "/api/v1/orders/"+order.ID, "user-2", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.call(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", "user-1", "", map[string]string{"status": "Completed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.call(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", "admin-1", middleware.RoleAdmin, map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated application.OrderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Completed", updated.Status)

	rec = e.call(t, http.MethodDelete, "/api/v1/orders/"+order.ID, "user-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	e := setup(t)
	order := e.checkout(t, "user-1")

	rec := e.call(t, http.MethodDelete, "/api/v1/orders/"+order.ID, "user-1", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.call(t, http.MethodGet, "/api/v1/orders/"+order.ID, "user-1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusValidation(t *testing.T) {
	e := setup(t)
	order := e.checkout(t, "user-1")

	rec := e.call(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", "admin-1", middleware.RoleAdmin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.call(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", "admin-1", middleware.RoleAdmin, map[string]string{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminListOrders(t *testing.T) {
	e := setup(t)
	e.checkout(t, "user-1")
	e.checkout(t, "user-2")

	rec := e.call(t, http.MethodGet, "/api/v1/admin/orders?user_id=user-2&page=1&page_size=10", "admin-1", middleware.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page application.OrderPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "user-2", page.Orders[0].UserID)
	assert.EqualValues(t, 1, page.Pagination.Total)

	rec = e.call(t, http.MethodGet, "/api/v1/admin/orders", "user-1", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
