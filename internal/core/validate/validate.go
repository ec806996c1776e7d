// Package validate holds the business rules applied to a Thing before it
// reaches the store. All functions are pure: they judge textual field
// values and never touch I/O.
package validate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/things-api/internal/core/domain"
)

var (
	priceMin = decimal.RequireFromString("0.10")
	priceMax = decimal.RequireFromString("100000.00")
)

// Price accepts a non-negative decimal with at most two fractional digits
// in the range [0.10, 100000.00).
func Price(text string) bool {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return false
	}
	if d.IsNegative() {
		return false
	}
	if fractionalDigits(text) > 2 {
		return false
	}
	return d.Cmp(priceMin) >= 0 && d.Cmp(priceMax) < 0
}

// Quantity accepts an integer strictly greater than zero. Fractional and
// negative values are rejected.
func Quantity(text string) bool {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return false
	}
	return d.IsInteger() && d.IsPositive()
}

// Available accepts a parsable YYYY-MM-DD calendar date.
func Available(text string) bool {
	_, err := time.Parse("2006-01-02", text)
	return err == nil
}

// RequiredFields reports the first absent mandatory field, checked in the
// fixed order price, available, name, category. An empty string means all
// are present.
func RequiredFields(in domain.ThingInput) (string, bool) {
	switch {
	case in.Price == nil:
		return "price", false
	case in.Available == nil:
		return "available", false
	case in.Name == nil:
		return "name", false
	case in.Category == nil:
		return "category", false
	}
	return "", true
}

// AtLeastOneWarehouse requires a non-empty stock list in which every entry
// names a warehouse.
func AtLeastOneWarehouse(stock []domain.StockInput) bool {
	if len(stock) == 0 {
		return false
	}
	for _, entry := range stock {
		if entry.Warehouse == "" {
			return false
		}
	}
	return true
}

// WarehouseAndQuantity requires every stock entry to carry a valid
// quantity. Runs after consolidation, so duplicate warehouses have already
// been summed.
func WarehouseAndQuantity(stock []domain.StockInput) bool {
	if len(stock) == 0 {
		return false
	}
	for _, entry := range stock {
		if !Quantity(entry.Quantity.String()) {
			return false
		}
	}
	return true
}

// fractionalDigits counts digits after the decimal point in the textual
// form, so "0.0002" is rejected even though its value fits the range.
func fractionalDigits(text string) int {
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		// exponent notation never counts as plain two-decimal money
		return len(text)
	}
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return len(text) - i - 1
	}
	return 0
}
