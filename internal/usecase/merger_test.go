package usecase

import (
	"testing"

	"github.com/simplespend/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offer(store, brand, name string, costs ...float64) domain.StoreOffer {
	o := domain.StoreOffer{StoreName: store, BrandName: brand, ProductName: name}
	sizes := []string{"1kg", "5kg", "10kg"}
	for i, c := range costs {
		o.Variants = append(o.Variants, domain.PriceVariant{Size: sizes[i], Cost: c})
	}
	return o
}

func TestParseListingPolicy(t *testing.T) {
	p, err := ParseListingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ListingAppend, p)

	p, err = ParseListingPolicy("replace")
	require.NoError(t, err)
	assert.Equal(t, ListingReplace, p)

	_, err = ParseListingPolicy("merge")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMerge_CaseInsensitiveNames(t *testing.T) {
	products := Merge(MergeConfig{}, []domain.StoreOffer{
		offer("A", "X", "Rice", 50),
		offer("B", "Y", "rice", 45),
		offer("C", "Z", " RICE ", 60),
	})

	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "Rice", p.Name, "first occurrence names the product")
	require.Len(t, p.Stores, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{p.Stores[0].StoreName, p.Stores[1].StoreName, p.Stores[2].StoreName})
	require.NotNil(t, p.BestPrice)
	assert.Equal(t, domain.BestPrice{Cost: 45, StoreName: "B", Size: "1kg"}, *p.BestPrice)
}

func TestMerge_FirstOccurrenceOrder(t *testing.T) {
	products := Merge(MergeConfig{}, []domain.StoreOffer{
		offer("A", "X", "Sugar", 40),
		offer("A", "X", "Salt", 20),
		offer("B", "Y", "sugar", 38),
		offer("A", "X", "Tea", 200),
	})

	var names []string
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Sugar", "Salt", "Tea"}, names)
}

func TestMerge_SkipsBlankNamesAndEmptyOffers(t *testing.T) {
	products := Merge(MergeConfig{}, []domain.StoreOffer{
		offer("A", "X", "", 10),
		offer("A", "X", "   ", 10),
		offer("A", "X", "Salt"),
		offer("A", "X", "Sugar", 40),
	})

	require.Len(t, products, 1)
	assert.Equal(t, "Sugar", products[0].Name)
}

func TestMerge_DescriptionAndCategory(t *testing.T) {
	first := offer("A", "X", "Ghee", 500)
	second := offer("B", "Y", "ghee", 480)
	second.Description = "Pure cow ghee"
	second.Category = "Dairy"
	third := offer("C", "Z", "GHEE", 510)
	third.Description = "Ignored"
	third.Category = "Ignored"

	products := Merge(MergeConfig{}, []domain.StoreOffer{first, second, third})

	require.Len(t, products, 1)
	assert.Equal(t, "Pure cow ghee", products[0].Description, "first non-empty description wins")
	assert.Equal(t, "Dairy", products[0].Category)
}

func TestMerge_DefaultCategory(t *testing.T) {
	products := Merge(MergeConfig{}, []domain.StoreOffer{offer("A", "X", "Atta", 300)})
	assert.Equal(t, DefaultCategory, products[0].Category)

	products = Merge(MergeConfig{DefaultCategory: "Misc"}, []domain.StoreOffer{offer("A", "X", "Atta", 300)})
	assert.Equal(t, "Misc", products[0].Category)
}

func TestMerge_AppendKeepsRepeatedStoreListings(t *testing.T) {
	products := Merge(MergeConfig{Policy: ListingAppend}, []domain.StoreOffer{
		offer("A", "X", "Rice", 50),
		offer("A", "X", "Rice", 40),
	})

	require.Len(t, products, 1)
	assert.Len(t, products[0].Stores, 2)
	assert.Equal(t, 40.0, products[0].BestPrice.Cost)
}

func TestMerge_ReplaceUpsertsStoreListing(t *testing.T) {
	products := Merge(MergeConfig{Policy: ListingReplace}, []domain.StoreOffer{
		offer("A", "X", "Rice", 50),
		offer("B", "X", "Rice", 45),
		offer("A", "X", "Rice", 60),
	})

	require.Len(t, products, 1)
	p := products[0]
	require.Len(t, p.Stores, 2)
	assert.Equal(t, 60.0, p.Stores[0].Variants[0].Cost)
	assert.Equal(t, domain.BestPrice{Cost: 45, StoreName: "B", Size: "1kg"}, *p.BestPrice)
}

func TestMerge_BestPriceMatchesListings(t *testing.T) {
	products := Merge(MergeConfig{}, []domain.StoreOffer{
		offer("A", "X", "Oil", 180, 850),
		offer("B", "Y", "oil", 0, 820),
		offer("C", "Z", "Oil", 175),
		offer("A", "X", "Flour", 0),
	})

	for _, p := range products {
		assert.True(t, p.HasConsistentPrice(), p.Name)
	}
	assert.Equal(t, domain.BestPrice{Cost: 175, StoreName: "C", Size: "1kg"}, *products[0].BestPrice)
	assert.Nil(t, products[1].BestPrice, "only coerced zero costs")
}

func TestMerge_Idempotent(t *testing.T) {
	offers := []domain.StoreOffer{
		offer("A", "X", "Rice", 50, 240),
		offer("B", "Y", "rice", 45),
		offer("A", "X", "Dal", 120),
	}

	first := Merge(MergeConfig{}, offers)
	second := Merge(MergeConfig{}, offers)

	assert.Equal(t, first, second)
}

func TestMerger_ExtendsExistingProducts(t *testing.T) {
	existing := domain.NewProduct("Rice", "Stored", "Atta & Grains")
	existing.ID = "stored-id"
	existing.Version = 3
	existing.AddListing(offer("A", "X", "Rice", 50).Listing())
	untouched := domain.NewProduct("Salt", "", "Essentials")
	untouched.ID = "salt-id"

	m := NewMerger(MergeConfig{Policy: ListingReplace}, existing, nil, untouched)
	m.Add(offer("B", "Y", "RICE", 44))
	m.Add(offer("A", "X", "Sugar", 40))

	touched := m.Touched()
	require.Len(t, touched, 2)
	assert.Same(t, existing, touched[0])
	assert.Equal(t, "stored-id", touched[0].ID)
	assert.Equal(t, int64(3), touched[0].Version)
	assert.Len(t, touched[0].Stores, 2)
	assert.Equal(t, "B", touched[0].BestPrice.StoreName)
	assert.Equal(t, "Sugar", touched[1].Name)
	assert.Empty(t, touched[1].ID)

	all := m.Products()
	require.Len(t, all, 3)
	assert.Equal(t, "Salt", all[1].Name)
}
