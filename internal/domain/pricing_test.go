package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(store string, costs ...float64) StoreListing {
	l := StoreListing{StoreName: store, BrandName: "Brand " + store}
	for i, c := range costs {
		l.Variants = append(l.Variants, PriceVariant{Size: sizeName(i), Cost: c})
	}
	return l
}

func sizeName(i int) string {
	return []string{"1kg", "5kg", "10kg", "25kg"}[i]
}

func TestComputeBestPrice(t *testing.T) {
	tests := []struct {
		name   string
		stores []StoreListing
		want   *BestPrice
	}{
		{
			name:   "no stores",
			stores: nil,
			want:   nil,
		},
		{
			name:   "store without variants",
			stores: []StoreListing{{StoreName: "A"}},
			want:   nil,
		},
		{
			name:   "single variant",
			stores: []StoreListing{listing("A", 50)},
			want:   &BestPrice{Cost: 50, StoreName: "A", Size: "1kg"},
		},
		{
			name:   "cheapest across stores",
			stores: []StoreListing{listing("A", 50, 45), listing("B", 40, 60)},
			want:   &BestPrice{Cost: 40, StoreName: "B", Size: "1kg"},
		},
		{
			name:   "cheapest variant inside a store",
			stores: []StoreListing{listing("A", 50, 30)},
			want:   &BestPrice{Cost: 30, StoreName: "A", Size: "5kg"},
		},
		{
			name:   "tie goes to first store in scan order",
			stores: []StoreListing{listing("A", 70, 40), listing("B", 40)},
			want:   &BestPrice{Cost: 40, StoreName: "A", Size: "5kg"},
		},
		{
			name:   "tie inside one store goes to first variant",
			stores: []StoreListing{listing("A", 40, 40)},
			want:   &BestPrice{Cost: 40, StoreName: "A", Size: "1kg"},
		},
		{
			name:   "coerced zero cost never wins",
			stores: []StoreListing{listing("A", 0), listing("B", 25)},
			want:   &BestPrice{Cost: 25, StoreName: "B", Size: "1kg"},
		},
		{
			name:   "only zero costs means no best price",
			stores: []StoreListing{listing("A", 0, 0)},
			want:   nil,
		},
		{
			name:   "non finite costs are ignored",
			stores: []StoreListing{listing("A", math.NaN(), math.Inf(1), 12)},
			want:   &BestPrice{Cost: 12, StoreName: "A", Size: "10kg"},
		},
		{
			name:   "negative costs are ignored",
			stores: []StoreListing{listing("A", -5, 9)},
			want:   &BestPrice{Cost: 9, StoreName: "A", Size: "5kg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBestPrice(tt.stores)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeBestPrice_Repeatable(t *testing.T) {
	stores := []StoreListing{listing("A", 10, 20), listing("B", 10), listing("C", 10)}
	first := ComputeBestPrice(stores)
	require.NotNil(t, first)

	for i := 0; i < 50; i++ {
		assert.Equal(t, first, ComputeBestPrice(stores))
	}
	assert.Equal(t, "A", first.StoreName)
}

func TestComputeBestPrice_GlobalMinimumOfSixVariants(t *testing.T) {
	stores := []StoreListing{
		listing("A", 90, 80),
		listing("B", 70, 35),
		listing("C", 60, 55),
	}

	got := ComputeBestPrice(stores)

	require.NotNil(t, got)
	assert.Equal(t, BestPrice{Cost: 35, StoreName: "B", Size: "5kg"}, *got)
}

func TestSortByBestPrice(t *testing.T) {
	priced := func(name string, cost float64) *Product {
		p := NewProduct(name, "", "")
		p.AddListing(listing("A", cost))
		return p
	}
	unpriced := NewProduct("Unpriced", "", "")
	unpriced.AddListing(listing("A", 0))

	products := []*Product{priced("c", 30), unpriced, priced("a", 10), priced("b1", 20), priced("b2", 20)}

	SortByBestPrice(products)

	var names []string
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c", "Unpriced"}, names)
}
