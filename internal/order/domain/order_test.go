package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pricing "github.com/wyfcoding/pizzashop/internal/pricing/domain"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"New", StatusNew},
		{"preparing", StatusPreparing},
		{" OUTFORDELIVERY ", StatusOutForDelivery},
		{"3", StatusCompleted},
		{"0", StatusNew},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "Cancelled", "4", "-1"} {
		_, err := ParseStatus(bad)
		assert.Equal(t, errorx.CodeInvalidInput, errorx.CodeOf(err), bad)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OutForDelivery", StatusOutForDelivery.String())
	assert.Equal(t, "Status(9)", Status(9).String())
	assert.False(t, Status(9).Valid())
}

func TestCanBeCancelled(t *testing.T) {
	for st, want := range map[Status]bool{
		StatusNew:            true,
		StatusPreparing:      true,
		StatusOutForDelivery: false,
		StatusCompleted:      false,
	} {
		o := &Order{Status: st}
		assert.Equal(t, want, o.CanBeCancelled(), st.String())
	}
}

func TestItemTotal(t *testing.T) {
	item := OrderItem{UnitPrice: decimal.RequireFromString("12.99"), Quantity: 2}
	assert.Equal(t, "25.98", item.ItemTotal().StringFixed(2))
}

func TestEncodeToppings(t *testing.T) {
	raw, err := EncodeToppings([]ToppingSnapshot{
		{Name: "Cheese", Cost: decimal.RequireFromString("1.5")},
		{Name: "Bacon", Cost: decimal.RequireFromString("2.50")},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Cheese","cost":1.50},{"name":"Bacon","cost":2.50}]`, raw)
	assert.Contains(t, raw, `"cost":1.50`)

	empty, err := EncodeToppings(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestDecodeToppingsAcceptsLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"lowercase number", `[{"name":"Cheese","cost":1.50}]`},
		{"capitalised keys", `[{"Name":"Cheese","Cost":1.5}]`},
		{"string cost", `[{"name":"Cheese","cost":"1.50"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeToppings(tt.raw)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Cheese", got[0].Name)
			assert.Equal(t, "1.50", got[0].Cost.StringFixed(2))
		})
	}

	got, err := DecodeToppings("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = DecodeToppings("{not json")
	assert.Error(t, err)
}

func TestSnapshotItems(t *testing.T) {
	quote := pricing.Quote{
		Items: []pricing.ItemQuote{
			{
				PizzaName: "Classic",
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("12.99"),
				Toppings: []pricing.ResolvedTopping{
					{ToppingID: "t1", Name: "Cheese", Cost: decimal.RequireFromString("1.50"), Default: true},
					{ToppingID: "t3", Name: "Bacon", Cost: decimal.RequireFromString("2.50")},
				},
			},
			{Quantity: 1},
		},
	}

	n := 0
	items := SnapshotItems("order-1", quote, func() string { n++; return string(rune('a' + n - 1)) })
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "order-1", items[0].OrderID)
	assert.Equal(t, "Classic", items[0].PizzaName)
	assert.Equal(t, []string{"Cheese", "Bacon"}, []string{items[0].Toppings[0].Name, items[0].Toppings[1].Name})
	assert.Equal(t, "25.98", items[0].ItemTotal().StringFixed(2))

	assert.Empty(t, items[1].PizzaName)
	assert.True(t, items[1].UnitPrice.IsZero())
	assert.Empty(t, items[1].Toppings)
}
