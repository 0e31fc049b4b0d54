package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/simplespend/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// newTestDatabase connects to SIMPLESPEND_TEST_MONGO_URI and hands out a
// throwaway database, skipping the test when no server is configured
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("SIMPLESPEND_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SIMPLESPEND_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri, 5*time.Second)
	require.NoError(t, err)

	db := client.Database("simplespend_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestProductRepository_ReplaceAllAndFind(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewProductRepository(db, 5*time.Second)
	ctx := context.Background()

	cheap := domain.NewProduct("Moong Dal", "", "Pulses")
	cheap.AddListing(domain.StoreListing{StoreName: "A", BrandName: "X", Variants: []domain.PriceVariant{{Size: "1kg", Cost: 90}}})
	dear := domain.NewProduct("Toor Dal", "", "Pulses")
	dear.AddListing(domain.StoreListing{StoreName: "B", BrandName: "Y", Variants: []domain.PriceVariant{{Size: "1kg", Cost: 150}}})
	unpriced := domain.NewProduct("Chana Dal", "", "Pulses")
	unpriced.AddListing(domain.StoreListing{StoreName: "B", BrandName: "Y", Variants: []domain.PriceVariant{{Size: "1kg"}}})

	require.NoError(t, repo.ReplaceAll(ctx, []*domain.Product{dear, unpriced, cheap}))

	all, err := repo.Find(ctx, domain.ProductFilter{}, domain.FindOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Toor Dal", all[0].Name, "persisted order")

	sorted, err := repo.Find(ctx, domain.ProductFilter{Text: "dal"}, domain.FindOptions{SortByPrice: true})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"Moong Dal", "Toor Dal", "Chana Dal"},
		[]string{sorted[0].Name, sorted[1].Name, sorted[2].Name})

	// A second rebuild replaces rather than accumulates
	require.NoError(t, repo.ReplaceAll(ctx, []*domain.Product{cheap}))
	total, err := repo.Count(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestProductRepository_SaveVersionConflict(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewProductRepository(db, 5*time.Second)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	p := domain.NewProduct("Sugar", "", "Essentials")
	p.AddListing(domain.StoreListing{StoreName: "A", Variants: []domain.PriceVariant{{Size: "1kg", Cost: 45}}})
	require.NoError(t, repo.Save(ctx, p))
	require.NotEmpty(t, p.ID)

	first, err := repo.FindByName(ctx, "SUGAR")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	first.AddListing(domain.StoreListing{StoreName: "B", Variants: []domain.PriceVariant{{Size: "1kg", Cost: 40}}})
	require.NoError(t, repo.Save(ctx, first))

	second.AddListing(domain.StoreListing{StoreName: "C", Variants: []domain.PriceVariant{{Size: "1kg", Cost: 41}}})
	assert.ErrorIs(t, repo.Save(ctx, second), domain.ErrVersionConflict)

	dup := domain.NewProduct("sugar", "", "")
	assert.ErrorIs(t, repo.Save(ctx, dup), domain.ErrVersionConflict)
}

func TestProductRepository_MalformedIDIsNotFound(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewProductRepository(db, 5*time.Second)

	_, err := repo.FindByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "not-an-id"), domain.ErrProductNotFound)
}

func TestCartRepository_GetMissingAndSave(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewCartRepository(db, 5*time.Second)
	ctx := context.Background()

	cart, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart.Items = append(cart.Items, domain.CartItem{ProductID: "p", Quantity: 1, SelectedStore: "A", SelectedSize: "1kg"})
	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, cart.Items, got.Items)
}
