// Package app wires configuration into storage, cache and services
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/simplespend/backend/config"
	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/cache"
	"github.com/simplespend/backend/internal/infrastructure/feed"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"github.com/simplespend/backend/internal/infrastructure/memory"
	"github.com/simplespend/backend/internal/infrastructure/mongodb"
	"github.com/simplespend/backend/internal/usecase"
)

const component = "app"

// App holds the wired services and the resources that need releasing
type App struct {
	ProductStore domain.ProductRepository
	CartStore    domain.CartRepository
	Cache        domain.CacheRepository

	Catalog *usecase.CatalogService
	Query   *usecase.CatalogQueryService
	Carts   *usecase.CartService

	closers []func(ctx context.Context) error
}

// New connects the configured backends and builds the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	if err := a.initStorage(ctx, cfg.Storage); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.initCache(ctx, cfg.Cache); err != nil {
		a.Close(ctx)
		return nil, err
	}

	policy, err := usecase.ParseListingPolicy(cfg.Catalog.ListingPolicy)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	sources := feed.NewSources(cfg.Catalog.Sources, feed.NewClient(cfg.RateLimit.Feed))

	a.Catalog = usecase.NewCatalogService(a.ProductStore, a.Cache, sources, usecase.CatalogServiceConfig{
		DefaultStore:      cfg.Catalog.DefaultStore,
		DefaultCategory:   cfg.Catalog.DefaultCategory,
		IncrementalPolicy: policy,
	})
	a.Query = usecase.NewCatalogQueryService(a.ProductStore, a.Cache, usecase.CatalogQueryConfig{
		SearchLimit:     cfg.Catalog.SearchLimit,
		SuggestionLimit: cfg.Catalog.SuggestionLimit,
		DealsLimit:      cfg.Catalog.DealsLimit,
		CacheTTL:        cfg.Cache.TTL,
	})
	a.Carts = usecase.NewCartService(a.CartStore, a.ProductStore)

	return a, nil
}

func (a *App) initStorage(ctx context.Context, cfg config.StorageConfig) error {
	log := logging.WithComponentAndFields(component, logging.Fields{"storage": cfg.Type})

	if cfg.Type != "mongo" {
		a.ProductStore = memory.NewProductRepository()
		a.CartStore = memory.NewCartRepository()
		log.Warn("using in-memory storage; the catalog is lost on restart")
		return nil
	}

	client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.Timeout)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(ctx context.Context) error {
		return client.Disconnect(ctx)
	})

	db := client.Database(cfg.Database)
	products := mongodb.NewProductRepository(db, cfg.Timeout)
	if err := products.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensuring product indexes: %w", err)
	}

	a.ProductStore = products
	a.CartStore = mongodb.NewCartRepository(db, cfg.Timeout)
	log.WithField("database", cfg.Database).Info("connected to MongoDB")
	return nil
}

func (a *App) initCache(ctx context.Context, cfg config.CacheConfig) error {
	log := logging.WithComponentAndFields(component, logging.Fields{"cache": cfg.Type, "ttl": cfg.TTL.String()})

	if cfg.Type != "redis" {
		memCache := cache.NewMemoryCache(time.Minute)
		a.Cache = memCache
		a.closers = append(a.closers, func(context.Context) error {
			return memCache.Close()
		})
		log.Info("using in-memory cache")
		return nil
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	a.Cache = cache.NewRedisCache(rdb)
	a.closers = append(a.closers, func(context.Context) error {
		return rdb.Close()
	})
	log.Info("connected to Redis")
	return nil
}

// Close releases connections in reverse order of creation
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logging.WithComponent(component).WithError(err).Warn("failed to release resource")
		}
	}
	a.closers = nil
}
