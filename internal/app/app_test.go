package app

import (
	"context"
	"testing"
	"time"

	"github.com/simplespend/backend/config"
	"github.com/simplespend/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func memoryConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Type: "memory", Database: "simplespend", Timeout: time.Second},
		Cache:   config.CacheConfig{Type: "memory", TTL: time.Minute},
		RateLimit: config.RateLimitConfig{
			Feed: 30,
		},
		Catalog: config.CatalogConfig{
			DefaultStore:    "Corner Shop",
			DefaultCategory: "Misc",
			ListingPolicy:   "replace",
		},
	}
}

func TestNew_InMemory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig())
	require.NoError(t, err)
	defer a.Close(ctx)

	raw := `{"brands":[{"brand":"Tata","items":[{"name":"Salt","quantities":[{"size":"1kg","cost":25}]}]}]}`
	_, err = a.Catalog.Ingest(ctx, []byte(raw), domain.IngestRebuild)
	require.NoError(t, err)

	page, err := a.Query.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	salt := page.Products[0]
	assert.Equal(t, "Misc", salt.Category)
	assert.Equal(t, "Corner Shop", salt.BestPrice.StoreName)

	view, err := a.Carts.Add(ctx, "user-1", domain.CartItem{ProductID: salt.ID, SelectedStore: "Corner Shop", SelectedSize: "1kg"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, view.Total)
}

func TestNew_InvalidListingPolicy(t *testing.T) {
	cfg := memoryConfig()
	cfg.Catalog.ListingPolicy = "merge"

	_, err := New(context.Background(), cfg)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_UnreachableRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache = config.CacheConfig{Type: "redis", RedisURL: "redis://127.0.0.1:1/0", TTL: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := New(ctx, cfg)

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
