package normalize

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rl1809/things-api/internal/core/domain"
)

func TestConsolidateStock(t *testing.T) {
	stock := []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "11"},
		{Warehouse: "baltimore", Quantity: "11"},
	}

	got := ConsolidateStock(stock)
	want := []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "22"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConsolidateStockKeepsFirstSeenOrder(t *testing.T) {
	stock := []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "5"},
		{Warehouse: "portland", Quantity: "3"},
		{Warehouse: "baltimore", Quantity: "7"},
		{Warehouse: "chicago", Quantity: "1"},
		{Warehouse: "portland", Quantity: "2"},
	}

	got := ConsolidateStock(stock)
	want := []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "12"},
		{Warehouse: "portland", Quantity: "5"},
		{Warehouse: "chicago", Quantity: "1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConsolidateStockIdempotent(t *testing.T) {
	stock := []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "11"},
		{Warehouse: "baltimore", Quantity: "11"},
		{Warehouse: "portland", Quantity: "4"},
	}

	once := ConsolidateStock(stock)
	twice := ConsolidateStock(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: first %v, second %v", once, twice)
	}
}

func TestConsolidateStockEmpty(t *testing.T) {
	if got := ConsolidateStock(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestConsolidateStockKeepsUnparsableQuantity(t *testing.T) {
	stock := []domain.StockInput{
		{Warehouse: "baltimore", Quantity: "eleven"},
	}

	got := ConsolidateStock(stock)
	if len(got) != 1 || got[0].Quantity != "eleven" {
		t.Errorf("got %v, want the original entry preserved", got)
	}
}

func TestClosest99Cent(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"10.25", "9.99"},
		{"10.75", "10.99"},
		{"10.99", "10.99"},
		{"10.49", "10.99"}, // tie resolves to the higher candidate
		{"0.10", "0.99"},
		{"100", "99.99"}, // whole amounts sit 0.01 above the lower candidate
		{"1.00", "0.99"},
		{"99999.99", "99999.99"},
	}

	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.amount)
		got := Closest99Cent(amount)
		if got.String() != tc.want {
			t.Errorf("Closest99Cent(%s) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}

func TestClosest99CentAlwaysEndsIn99(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	ninetyNine := decimal.NewFromInt(99)

	for _, amount := range []string{"0.10", "1.00", "2.37", "10.25", "10.75", "500.50", "99999.99"} {
		got := Closest99Cent(decimal.RequireFromString(amount))
		cents := got.Mul(hundred).Mod(hundred)
		if !cents.Equal(ninetyNine) {
			t.Errorf("Closest99Cent(%s) = %s, fractional part is not .99", amount, got)
		}
	}
}
