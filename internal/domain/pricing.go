package domain

import (
	"math"
	"slices"
)

// ComputeBestPrice returns the cheapest variant across the given listings.
//
// Listings are scanned in order and variants within each listing in order; the
// first variant reaching the minimum wins ties. Variants without a finite
// positive cost (exports coerce unparsable costs to zero) are never candidates.
// Returns nil when no variant qualifies.
func ComputeBestPrice(stores []StoreListing) *BestPrice {
	var best *BestPrice
	for _, store := range stores {
		for _, v := range store.Variants {
			if !isPriced(v.Cost) {
				continue
			}
			if best == nil || v.Cost < best.Cost {
				best = &BestPrice{Cost: v.Cost, StoreName: store.StoreName, Size: v.Size}
			}
		}
	}
	return best
}

func isPriced(cost float64) bool {
	return cost > 0 && !math.IsInf(cost, 0) && !math.IsNaN(cost)
}

// CompareByBestPrice orders products by best price ascending. Products without
// a best price sort after every priced product.
func CompareByBestPrice(a, b *Product) int {
	switch {
	case a.BestPrice == nil && b.BestPrice == nil:
		return 0
	case a.BestPrice == nil:
		return 1
	case b.BestPrice == nil:
		return -1
	case a.BestPrice.Cost < b.BestPrice.Cost:
		return -1
	case a.BestPrice.Cost > b.BestPrice.Cost:
		return 1
	}
	return 0
}

// SortByBestPrice stably sorts products by CompareByBestPrice
func SortByBestPrice(products []*Product) {
	slices.SortStableFunc(products, CompareByBestPrice)
}
