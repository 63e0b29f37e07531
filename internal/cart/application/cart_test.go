package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pizzashop/internal/cart/application"
	cartdomain "github.com/wyfcoding/pizzashop/internal/cart/domain"
	cartmysql "github.com/wyfcoding/pizzashop/internal/cart/infrastructure/persistence/mysql"
	catalogapp "github.com/wyfcoding/pizzashop/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/pizzashop/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/db/dbtest"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
	"github.com/wyfcoding/pizzashop/pkg/outbox"
)

const user = "user-1"

type fixture struct {
	db      *db.DB
	catalog *catalogapp.CatalogCommandService
	carts   *application.CartManager
	metrics *metrics.Metrics

	classic, cheese, ham, bacon string
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

// newFixture 准备目录：Classic 8.99，默认 Cheese 1.50 与 Ham 2.00，另有 Bacon 2.50
func newFixture(t *testing.T) *fixture {
	t.Helper()
	models := append(catalogmysql.Models(), cartmysql.Models()...)
	d := dbtest.New(t, append(models, &outbox.Message{})...)
	publisher := outbox.NewPublisher(d)

	pizzas := catalogmysql.NewPizzaRepository(d.DB)
	toppings := catalogmysql.NewToppingRepository(d.DB)
	query := catalogapp.NewCatalogQueryService(pizzas, toppings)
	m := metrics.New("cart")

	f := &fixture{
		db:      d,
		catalog: catalogapp.NewCatalogCommandService(pizzas, toppings, publisher, d, nil),
		carts:   application.NewCartManager(cartmysql.NewCartRepository(d.DB), query, publisher, d, m),
		metrics: m,
	}

	ctx := context.Background()
	var err error
	f.cheese, err = f.catalog.CreateTopping(ctx, catalogapp.SaveToppingCommand{Name: "Cheese", Cost: money("1.50")})
	require.NoError(t, err)
	f.ham, err = f.catalog.CreateTopping(ctx, catalogapp.SaveToppingCommand{Name: "Ham", Cost: money("2.00")})
	require.NoError(t, err)
	f.bacon, err = f.catalog.CreateTopping(ctx, catalogapp.SaveToppingCommand{Name: "Bacon", Cost: money("2.50")})
	require.NoError(t, err)
	f.classic, err = f.catalog.CreatePizza(ctx, catalogapp.SavePizzaCommand{
		Name: "Classic", BasePrice: money("8.99"), ToppingIDs: []string{f.cheese, f.ham},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) events(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&outbox.Message{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestGetCartCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.carts.GetCart(ctx, user)
	require.NoError(t, err)
	second, err := f.carts.GetCart(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Items)
	assertMoney(t, "0.00", second.Total)
	assert.EqualValues(t, 1, f.count(t, &cartmysql.CartModel{}))
}

func TestGetCartConcurrentFirstAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := f.carts.GetCart(ctx, "fresh-user")
			errs[i] = err
			if err == nil {
				ids[i] = view.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.EqualValues(t, 1, f.count(t, &cartmysql.CartModel{}))
}

func TestAddItemPricesOverrides(t *testing.T) {
	f := newFixture(t)
	view, err := f.carts.AddItem(context.Background(), user, f.classic, 2, []string{f.bacon}, []string{f.ham})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	item := view.Items[0]
	assert.Equal(t, "Classic", item.PizzaName)
	assertMoney(t, "8.99", item.BasePrice)
	assertMoney(t, "12.99", item.UnitPrice)
	assertMoney(t, "25.98", item.ItemTotal)
	assertMoney(t, "25.98", view.Total)
	assert.Equal(t, 2, view.ItemCount)

	require.Len(t, item.Toppings, 2)
	assert.Equal(t, f.cheese, item.Toppings[0].ID)
	assert.True(t, item.Toppings[0].Default)
	assert.Equal(t, f.bacon, item.Toppings[1].ID)
	assert.False(t, item.Toppings[1].Default)

	require.Len(t, item.CustomToppings, 2)
	assert.Equal(t, f.bacon, item.CustomToppings[0].ID)
	assert.True(t, item.CustomToppings[0].IsAdded)
	assert.Equal(t, f.ham, item.CustomToppings[1].ID)
	assert.False(t, item.CustomToppings[1].IsAdded)

	assert.EqualValues(t, 1, f.events(t, cartdomain.TopicItemAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CartOperationsTotal.WithLabelValues("add_item", "ok")))
}

func TestTotalIsSumOfLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, user, f.classic, 1, nil, nil)
	require.NoError(t, err)
	view, err := f.carts.AddItem(ctx, user, f.classic, 3, []string{f.bacon}, nil)
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	sum := decimal.Zero
	for _, it := range view.Items {
		assert.True(t, it.ItemTotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))))
		sum = sum.Add(it.ItemTotal)
	}
	assert.True(t, view.Total.Equal(sum))
	// 12.49 + 3 × 14.99
	assertMoney(t, "57.46", view.Total)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, user, f.classic, 0, nil, nil)
	assert.Equal(t, errorx.CodeInvalidInput, errorx.CodeOf(err))
	_, err = f.carts.AddItem(ctx, user, f.classic, 101, nil, nil)
	assert.Equal(t, errorx.CodeInvalidInput, errorx.CodeOf(err))

	_, err = f.carts.AddItem(ctx, user, "no-such-pizza", 1, nil, nil)
	assert.Equal(t, errorx.CodeNotFound, errorx.CodeOf(err))

	assert.Zero(t, f.count(t, &cartmysql.CartItemModel{}))
	assert.Zero(t, f.events(t, cartdomain.TopicItemAdded))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.CartOperationsTotal.WithLabelValues("add_item", "error")))
}

func TestAddItemSkipsUnknownToppingsAndRemovalWins(t *testing.T) {
	f := newFixture(t)
	view, err := f.carts.AddItem(context.Background(), user, f.classic, 1,
		[]string{"ghost", f.ham, f.bacon, f.bacon},
		[]string{f.ham, "phantom"},
	)
	require.NoError(t, err)

	// Cheese + Bacon，Ham 被移除
	assertMoney(t, "12.99", view.Items[0].UnitPrice)
	assert.Len(t, view.Items[0].CustomToppings, 2)
	assert.EqualValues(t, 2, f.count(t, &cartmysql.CartItemToppingModel{}))
}

func TestUpdateItemReplacesOverrides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.carts.AddItem(ctx, user, f.classic, 1, nil, nil)
	require.NoError(t, err)
	itemID := view.Items[0].ID
	original := view.Total

	view, err = f.carts.UpdateItem(ctx, user, itemID, 1, nil, []string{f.ham})
	require.NoError(t, err)
	assertMoney(t, "10.49", view.Total)

	view, err = f.carts.UpdateItem(ctx, user, itemID, 1, []string{f.ham}, nil)
	require.NoError(t, err)
	assert.True(t, original.Equal(view.Total))
	assert.Empty(t, view.Items[0].CustomToppings)

	view, err = f.carts.UpdateItem(ctx, user, itemID, 4, nil, nil)
	require.NoError(t, err)
	assertMoney(t, "49.96", view.Total)
	assert.EqualValues(t, 3, f.events(t, cartdomain.TopicItemUpdated))
}

func TestUpdateItemErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.carts.AddItem(ctx, user, f.classic, 1, nil, nil)
	require.NoError(t, err)

	_, err = f.carts.UpdateItem(ctx, user, "missing", 1, nil, nil)
	assert.Equal(t, errorx.CodeNotFound, errorx.CodeOf(err))

	_, err = f.carts.UpdateItem(ctx, user, view.Items[0].ID, 500, nil, nil)
	assert.Equal(t, errorx.CodeInvalidInput, errorx.CodeOf(err))

	// 其他用户的条目
	_, err = f.carts.UpdateItem(ctx, "user-2", view.Items[0].ID, 2, nil, nil)
	assert.Equal(t, errorx.CodeNotFound, errorx.CodeOf(err))
}

func TestUpdateItemAfterPizzaDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.carts.AddItem(ctx, user, f.classic, 1, nil, nil)
	require.NoError(t, err)
	itemID := view.Items[0].ID
	require.NoError(t, f.catalog.DeletePizza(ctx, f.classic))

	view, err = f.carts.UpdateItem(ctx, user, itemID, 3, []string{f.bacon, "unknown"}, nil)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	item := view.Items[0]
	assert.Equal(t, 3, item.Quantity)
	assert.Empty(t, item.PizzaName)
	assertMoney(t, "2.50", item.UnitPrice)
	assertMoney(t, "7.50", view.Total)
	assert.EqualValues(t, 1, f.count(t, &cartmysql.CartItemToppingModel{}))

	// 新增已下架的披萨仍然拒绝
	_, err = f.carts.AddItem(ctx, user, f.classic, 1, nil, nil)
	assert.Equal(t, errorx.CodeNotFound, errorx.CodeOf(err))
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.carts.AddItem(ctx, user, f.classic, 1, []string{f.bacon}, nil)
	require.NoError(t, err)

	view, err = f.carts.RemoveItem(ctx, user, view.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assertMoney(t, "0.00", view.Total)
	assert.Zero(t, f.count(t, &cartmysql.CartItemToppingModel{}))

	_, err = f.carts.RemoveItem(ctx, user, "missing")
	assert.Equal(t, errorx.CodeNotFound, errorx.CodeOf(err))
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cleared, err := f.carts.ClearCart(ctx, user)
	require.NoError(t, err)
	assert.False(t, cleared)

	_, err = f.carts.AddItem(ctx, user, f.classic, 2, []string{f.bacon}, nil)
	require.NoError(t, err)

	cleared, err = f.carts.ClearCart(ctx, user)
	require.NoError(t, err)
	assert.True(t, cleared)
	cleared, err = f.carts.ClearCart(ctx, user)
	require.NoError(t, err)
	assert.True(t, cleared)

	view, err := f.carts.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.EqualValues(t, 1, f.count(t, &cartmysql.CartModel{}))
}

func TestCartRepricesAgainstLiveCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, user, f.classic, 2, nil, nil)
	require.NoError(t, err)

	require.NoError(t, f.catalog.UpdatePizza(ctx, f.classic, catalogapp.SavePizzaCommand{
		Name: "Classic", BasePrice: money("10.00"), ToppingIDs: []string{f.cheese, f.ham},
	}))
	view, err := f.carts.GetCart(ctx, user)
	require.NoError(t, err)
	assertMoney(t, "27.00", view.Total)

	// 删除的配料不再计价
	require.NoError(t, f.catalog.DeleteTopping(ctx, f.ham))
	view, err = f.carts.GetCart(ctx, user)
	require.NoError(t, err)
	assertMoney(t, "23.00", view.Total)
}

func TestPriceForCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.db.Transaction(ctx, func(ctx context.Context) error {
		priced, err := f.carts.PriceForCheckout(ctx, user)
		assert.Nil(t, priced)
		return err
	})
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, user, f.classic, 2, []string{f.bacon}, []string{f.ham})
	require.NoError(t, err)

	err = f.db.Transaction(ctx, func(ctx context.Context) error {
		priced, err := f.carts.PriceForCheckout(ctx, user)
		require.NoError(t, err)
		require.NotNil(t, priced)
		assert.Len(t, priced.Cart.Items, 1)
		assertMoney(t, "25.98", priced.Quote.Total)
		return nil
	})
	require.NoError(t, err)
}
