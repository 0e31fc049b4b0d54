package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_AddListingRecomputesBestPrice(t *testing.T) {
	p := NewProduct("Rice", "", "Grains")
	assert.Nil(t, p.BestPrice)

	p.AddListing(listing("A", 50))
	require.NotNil(t, p.BestPrice)
	assert.Equal(t, 50.0, p.BestPrice.Cost)
	assert.True(t, p.HasConsistentPrice())

	p.AddListing(listing("B", 40))
	assert.Equal(t, "B", p.BestPrice.StoreName)
	assert.Len(t, p.Stores, 2)
	assert.True(t, p.HasConsistentPrice())
}

func TestProduct_AddListingKeepsDuplicateStores(t *testing.T) {
	p := NewProduct("Rice", "", "Grains")
	p.AddListing(listing("A", 50))
	p.AddListing(listing("A", 45))

	assert.Len(t, p.Stores, 2)
	assert.Equal(t, 45.0, p.BestPrice.Cost)
}

func TestProduct_UpsertListing(t *testing.T) {
	p := NewProduct("Rice", "", "Grains")
	p.AddListing(listing("A", 50))
	p.AddListing(listing("B", 40))

	t.Run("replaces listing with same store and brand", func(t *testing.T) {
		replaced := p.UpsertListing(listing("B", 60))

		assert.True(t, replaced)
		assert.Len(t, p.Stores, 2)
		assert.Equal(t, BestPrice{Cost: 50, StoreName: "A", Size: "1kg"}, *p.BestPrice)
	})

	t.Run("appends listing for a new store", func(t *testing.T) {
		replaced := p.UpsertListing(listing("C", 10))

		assert.False(t, replaced)
		assert.Len(t, p.Stores, 3)
		assert.Equal(t, "C", p.BestPrice.StoreName)
	})

	t.Run("different brand at same store is a new listing", func(t *testing.T) {
		other := listing("A", 5)
		other.BrandName = "House Brand"
		replaced := p.UpsertListing(other)

		assert.False(t, replaced)
		assert.Len(t, p.Stores, 4)
		assert.True(t, p.HasConsistentPrice())
	})
}

func TestProduct_SetListings(t *testing.T) {
	p := NewProduct("Rice", "", "Grains")
	p.AddListing(listing("A", 5))

	p.SetListings([]StoreListing{listing("B", 0)})

	assert.Nil(t, p.BestPrice)
	assert.True(t, p.HasConsistentPrice())
}

func TestProduct_HasConsistentPrice(t *testing.T) {
	p := NewProduct("Rice", "", "Grains")
	p.AddListing(listing("A", 50))

	p.BestPrice = &BestPrice{Cost: 1, StoreName: "A", Size: "1kg"}
	assert.False(t, p.HasConsistentPrice())

	p.BestPrice = nil
	assert.False(t, p.HasConsistentPrice())
}

func TestProduct_Brands(t *testing.T) {
	p := NewProduct("Rice", "", "Grains")
	p.AddListing(StoreListing{StoreName: "A", BrandName: "Rozana"})
	p.AddListing(StoreListing{StoreName: "B", BrandName: "Daawat"})
	p.AddListing(StoreListing{StoreName: "C", BrandName: "Rozana"})

	assert.Equal(t, []string{"Rozana", "Daawat"}, p.Brands())
}

func TestProduct_CloneIsDeep(t *testing.T) {
	p := NewProduct("Rice", "desc", "Grains")
	p.AddListing(StoreListing{
		StoreName: "A",
		BrandName: "Rozana",
		Variants:  []PriceVariant{{Size: "1kg", Cost: 10, Images: []string{"a.png"}}},
	})

	c := p.Clone()
	c.Stores[0].Variants[0].Cost = 99
	c.Stores[0].Variants[0].Images[0] = "b.png"
	c.BestPrice.Cost = 99

	assert.Equal(t, 10.0, p.Stores[0].Variants[0].Cost)
	assert.Equal(t, "a.png", p.Stores[0].Variants[0].Images[0])
	assert.Equal(t, 10.0, p.BestPrice.Cost)
	assert.Nil(t, (*Product)(nil).Clone())
}

func TestStoreOffer_ListingCopiesVariants(t *testing.T) {
	offer := StoreOffer{
		StoreName: "A",
		BrandName: "Rozana",
		Variants:  []PriceVariant{{Size: "1kg", Cost: 10}},
	}

	l := offer.Listing()
	l.Variants[0].Cost = 20

	assert.Equal(t, "A", l.StoreName)
	assert.Equal(t, "Rozana", l.BrandName)
	assert.Equal(t, 10.0, offer.Variants[0].Cost)
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Rice", "rice", true},
		{"  Basmati Rice ", "basmati rice", true},
		{"ÉCOLE Rice", "e\u0301cole rice", true},
		{"Straße Brot", "STRASSE BROT", true},
		{"Rice", "Rice Flour", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.same, NameKey(tt.a) == NameKey(tt.b))
		})
	}
}

func TestIngestMode_Valid(t *testing.T) {
	assert.True(t, IngestRebuild.Valid())
	assert.True(t, IngestIncremental.Valid())
	assert.False(t, IngestMode("partial").Valid())
}
