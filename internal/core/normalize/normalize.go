// Package normalize transforms a Thing in memory before validation and
// persistence: duplicate warehouse stock is consolidated and prices are
// snapped to the nearest 99-cent amount. No I/O.
package normalize

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/rl1809/things-api/internal/core/domain"
)

var (
	oneCent        = decimal.RequireFromString("0.01")
	ninetyNineCent = decimal.RequireFromString("0.99")
)

// ConsolidateStock merges stock entries that share a warehouse by summing
// their quantities. The merged entry keeps the position of the warehouse's
// first occurrence. Runs before validation: an invalid summed quantity is
// caught by the quantity rule afterwards. Idempotent.
func ConsolidateStock(stock []domain.StockInput) []domain.StockInput {
	if len(stock) == 0 {
		return stock
	}

	merged := make([]domain.StockInput, 0, len(stock))
	index := make(map[string]int, len(stock))
	sums := make(map[string]decimal.Decimal, len(stock))

	for _, entry := range stock {
		qty, err := decimal.NewFromString(entry.Quantity.String())
		if err != nil {
			// unparsable quantity: keep the entry as-is so validation
			// rejects it with the original text
			merged = append(merged, entry)
			continue
		}

		i, seen := index[entry.Warehouse]
		if !seen {
			index[entry.Warehouse] = len(merged)
			sums[entry.Warehouse] = qty
			merged = append(merged, domain.StockInput{
				Warehouse: entry.Warehouse,
				Quantity:  entry.Quantity,
			})
			continue
		}

		sum := sums[entry.Warehouse].Add(qty)
		sums[entry.Warehouse] = sum
		merged[i].Quantity = json.Number(sum.String())
	}

	return merged
}

// Closest99Cent returns whichever of the two neighbouring 99-cent amounts
// (floor-0.01 below, floor+0.99 above) is numerically closer to the input.
// Ties resolve to the higher candidate: 10.25 becomes 9.99, 10.75 becomes
// 10.99.
func Closest99Cent(amount decimal.Decimal) decimal.Decimal {
	floor := amount.Floor()
	lower := floor.Sub(oneCent)
	upper := floor.Add(ninetyNineCent)

	// below 1.00 the lower candidate would be negative; 0.99 is the
	// smallest 99-cent amount
	if lower.IsNegative() {
		return upper
	}

	if amount.Sub(lower).Cmp(upper.Sub(amount)) < 0 {
		return lower
	}
	return upper
}
