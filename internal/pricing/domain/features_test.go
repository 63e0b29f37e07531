package domain

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type pricingTestContext struct {
	catalog Catalog
	items   []Item
	quote   Quote
}

func (c *pricingTestContext) reset() {
	c.catalog = NewCatalog(nil, nil)
	c.items = nil
	c.quote = Quote{}
}

// 测试中以名称作为 id
func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *pricingTestContext) theToppingCosts(name, cost string) error {
	v, err := decimal.NewFromString(cost)
	if err != nil {
		return err
	}
	c.catalog.Toppings[name] = Topping{ID: name, Name: name, Cost: v}
	return nil
}

func (c *pricingTestContext) thePizzaCostsWithDefaults(name, price, defaults string) error {
	v, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.catalog.Pizzas[name] = Pizza{ID: name, Name: name, BasePrice: v, DefaultToppingIDs: splitNames(defaults)}
	return nil
}

func (c *pricingTestContext) thePizzaNowCosts(name, price string) error {
	p, ok := c.catalog.Pizzas[name]
	if !ok {
		return fmt.Errorf("unknown pizza %q", name)
	}
	v, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	p.BasePrice = v
	c.catalog.Pizzas[name] = p
	return nil
}

func (c *pricingTestContext) iPrice(qty int, pizza, removed, added string) error {
	item := Item{ID: fmt.Sprintf("item-%d", len(c.items)+1), PizzaID: pizza, Quantity: qty}
	for _, id := range splitNames(removed) {
		item.Overrides = append(item.Overrides, Override{ToppingID: id, IsAdded: false})
	}
	for _, id := range splitNames(added) {
		item.Overrides = append(item.Overrides, Override{ToppingID: id, IsAdded: true})
	}
	c.items = append(c.items, item)
	c.quote = PriceCart(c.catalog, c.items)
	return nil
}

func (c *pricingTestContext) iPriceTheCartAgain() error {
	c.quote = PriceCart(c.catalog, c.items)
	return nil
}

func (c *pricingTestContext) lastItem() (ItemQuote, error) {
	if len(c.quote.Items) == 0 {
		return ItemQuote{}, fmt.Errorf("nothing priced")
	}
	return c.quote.Items[len(c.quote.Items)-1], nil
}

func expectAmount(label string, got decimal.Decimal, want string) error {
	if got.StringFixed(2) != want {
		return fmt.Errorf("expected %s %s, got %s", label, want, got.StringFixed(2))
	}
	return nil
}

func (c *pricingTestContext) theUnitPriceIs(want string) error {
	iq, err := c.lastItem()
	if err != nil {
		return err
	}
	return expectAmount("unit price", iq.UnitPrice, want)
}

func (c *pricingTestContext) theLineTotalIs(want string) error {
	iq, err := c.lastItem()
	if err != nil {
		return err
	}
	return expectAmount("line total", iq.LineTotal, want)
}

func (c *pricingTestContext) theCartTotalIs(want string) error {
	return expectAmount("cart total", c.quote.Total, want)
}

func (c *pricingTestContext) theResolvedToppingsAre(want string) error {
	iq, err := c.lastItem()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(iq.Toppings))
	for _, t := range iq.Toppings {
		names = append(names, t.Name)
	}
	if got := strings.Join(names, ", "); got != want {
		return fmt.Errorf("expected toppings %q, got %q", want, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given
	ctx.Step(`^the topping "([^"]*)" costs (\d+\.\d+)$`, tc.theToppingCosts)
	ctx.Step(`^the pizza "([^"]*)" costs (\d+\.\d+) with default toppings "([^"]*)"$`, tc.thePizzaCostsWithDefaults)

	// When
	ctx.Step(`^I price (\d+) "([^"]*)" removing "([^"]*)" and adding "([^"]*)"$`, tc.iPrice)
	ctx.Step(`^the pizza "([^"]*)" now costs (\d+\.\d+)$`, tc.thePizzaNowCosts)
	ctx.Step(`^I price the cart again$`, tc.iPriceTheCartAgain)

	// Then
	ctx.Step(`^the unit price is (\d+\.\d+)$`, tc.theUnitPriceIs)
	ctx.Step(`^the line total is (\d+\.\d+)$`, tc.theLineTotalIs)
	ctx.Step(`^the cart total is (\d+\.\d+)$`, tc.theCartTotalIs)
	ctx.Step(`^the resolved toppings are "([^"]*)"$`, tc.theResolvedToppingsAre)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
