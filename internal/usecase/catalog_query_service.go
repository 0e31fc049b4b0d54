package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
	"golang.org/x/sync/errgroup"
)

const componentQuery = "catalog.query"

// CatalogCachePrefix prefixes every cache key holding catalog reads
const CatalogCachePrefix = "catalog:"

// PlaceholderImage is shown for products whose variants carry no image
const PlaceholderImage = "https://via.placeholder.com/300x300.png?text=Product+Image"

// CatalogQueryConfig holds configuration for the catalog query service
type CatalogQueryConfig struct {
	SearchLimit     int
	SuggestionLimit int
	DealsLimit      int
	PopularLimit    int
	DefaultPageSize int
	MaxPageSize     int
	CacheTTL        time.Duration
}

// CatalogQueryService answers read-only catalog queries
type CatalogQueryService struct {
	products domain.ProductRepository
	cache    domain.CacheRepository
	config   CatalogQueryConfig
}

// NewCatalogQueryService creates a query service. cache may be nil.
func NewCatalogQueryService(
	products domain.ProductRepository,
	cache domain.CacheRepository,
	config CatalogQueryConfig,
) *CatalogQueryService {
	if config.SearchLimit <= 0 {
		config.SearchLimit = 30
	}
	if config.SuggestionLimit <= 0 {
		config.SuggestionLimit = 10
	}
	if config.DealsLimit <= 0 {
		config.DealsLimit = 30
	}
	if config.PopularLimit <= 0 {
		config.PopularLimit = 6
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 50
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}

	return &CatalogQueryService{
		products: products,
		cache:    cache,
		config:   config,
	}
}

// List returns one page of products in persisted order with the catalog total
func (s *CatalogQueryService) List(ctx context.Context, page, limit int) (*domain.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.config.DefaultPageSize
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}

	cacheKey := fmt.Sprintf("%slist:p%d:l%d", CatalogCachePrefix, page, limit)
	var cached domain.ProductPage
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var (
		total    int64
		products []*domain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.products.Count(gctx, domain.ProductFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.Find(gctx, domain.ProductFilter{}, domain.FindOptions{
			Skip:  int64((page - 1) * limit),
			Limit: int64(limit),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if products == nil {
		products = []*domain.Product{}
	}
	result := &domain.ProductPage{Total: total, Page: page, Limit: limit, Products: products}
	s.toCache(ctx, cacheKey, result)
	return result, nil
}

// Search matches the query against name, category, description and brands and
// pairs the matches with a random sample of the catalog. An empty query only
// yields suggestions.
func (s *CatalogQueryService) Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResult, error) {
	if request == nil {
		return nil, domain.ErrInvalidInput
	}

	text, err := cleanSearchText(request.Query)
	if err != nil {
		return nil, err
	}

	results := []domain.ProductSummary{}
	if text != "" {
		results, err = s.searchResults(ctx, text, strings.TrimSpace(request.Category))
		if err != nil {
			return nil, err
		}
	}

	suggestions, err := s.sampleSorted(ctx, s.config.SuggestionLimit)
	if err != nil {
		return nil, err
	}

	return &domain.SearchResult{Results: results, Suggestions: suggestions}, nil
}

// SearchProducts is Search without suggestions; the query is required
func (s *CatalogQueryService) SearchProducts(ctx context.Context, request *domain.SearchRequest) ([]domain.ProductSummary, error) {
	if request == nil {
		return nil, domain.ErrInvalidInput
	}
	text, err := cleanSearchText(request.Query)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}
	return s.searchResults(ctx, text, strings.TrimSpace(request.Category))
}

func (s *CatalogQueryService) searchResults(ctx context.Context, text, category string) ([]domain.ProductSummary, error) {
	cacheKey := fmt.Sprintf("%ssearch:%q:%q", CatalogCachePrefix, strings.ToLower(text), category)
	var cached []domain.ProductSummary
	if s.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := s.products.Find(ctx,
		domain.ProductFilter{Text: text, Category: category},
		domain.FindOptions{Limit: int64(s.config.SearchLimit), SortByPrice: true},
	)
	if err != nil {
		return nil, err
	}

	summaries := summarize(products)
	s.toCache(ctx, cacheKey, summaries)
	return summaries, nil
}

// ByCategory returns every product of exactly this category, cheapest first
func (s *CatalogQueryService) ByCategory(ctx context.Context, category string) ([]domain.ProductSummary, error) {
	if strings.TrimSpace(category) == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf("%scategory:%q", CatalogCachePrefix, category)
	var cached []domain.ProductSummary
	if s.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := s.products.Find(ctx,
		domain.ProductFilter{Category: category},
		domain.FindOptions{SortByPrice: true},
	)
	if err != nil {
		return nil, err
	}

	summaries := summarize(products)
	s.toCache(ctx, cacheKey, summaries)
	return summaries, nil
}

// BestDeals returns the cheapest products, optionally restricted to a best-price
// store and to products carrying a brand
func (s *CatalogQueryService) BestDeals(ctx context.Context, request *domain.DealsRequest) ([]domain.ProductSummary, error) {
	filter := domain.ProductFilter{}
	if request != nil {
		filter.BestStore = strings.TrimSpace(request.Store)
		filter.Brand = strings.TrimSpace(request.Brand)
	}

	cacheKey := fmt.Sprintf("%sdeals:%q:%q", CatalogCachePrefix, filter.BestStore, filter.Brand)
	var cached []domain.ProductSummary
	if s.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	products, err := s.products.Find(ctx, filter, domain.FindOptions{
		Limit:       int64(s.config.DealsLimit),
		SortByPrice: true,
	})
	if err != nil {
		return nil, err
	}

	summaries := summarize(products)
	s.toCache(ctx, cacheKey, summaries)
	return summaries, nil
}

// Get returns one product by id
func (s *CatalogQueryService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrProductNotFound
	}

	cacheKey := fmt.Sprintf("%sproduct:%s", CatalogCachePrefix, id)
	var cached domain.Product
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, cacheKey, product)
	return product, nil
}

// Compare returns every listing of a product with all its options, unflattened
func (s *CatalogQueryService) Compare(ctx context.Context, id string) (*domain.ComparisonView, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	stores := make([]domain.StoreComparison, 0, len(product.Stores))
	for _, listing := range product.Stores {
		options := make([]domain.PriceOption, 0, len(listing.Variants))
		for _, v := range listing.Variants {
			options = append(options, domain.PriceOption{Size: v.Size, Cost: v.Cost, Offer: v.Offer})
		}
		stores = append(stores, domain.StoreComparison{
			StoreName: listing.StoreName,
			Brand:     listing.BrandName,
			Options:   options,
		})
	}

	return &domain.ComparisonView{
		ID:         product.ID,
		Name:       product.Name,
		BestPrice:  product.BestPrice,
		StoreCount: len(stores),
		Stores:     stores,
	}, nil
}

// Popular returns a random selection of products
func (s *CatalogQueryService) Popular(ctx context.Context, limit int) ([]domain.ProductSummary, error) {
	if limit <= 0 || limit > s.config.MaxPageSize {
		limit = s.config.PopularLimit
	}
	products, err := s.products.Sample(ctx, limit)
	if err != nil {
		return nil, err
	}
	return summarize(products), nil
}

// Categories lists the distinct categories with their product counts
func (s *CatalogQueryService) Categories(ctx context.Context) ([]domain.CategoryInfo, error) {
	cacheKey := CatalogCachePrefix + "categories"
	var cached []domain.CategoryInfo
	if s.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].Slug = categorySlug(categories[i].Name)
	}

	s.toCache(ctx, cacheKey, categories)
	return categories, nil
}

// sampleSorted draws a random sample and orders it like search results.
// Never cached: every call should see a fresh sample.
func (s *CatalogQueryService) sampleSorted(ctx context.Context, n int) ([]domain.ProductSummary, error) {
	products, err := s.products.Sample(ctx, n)
	if err != nil {
		return nil, err
	}
	domain.SortByBestPrice(products)
	return summarize(products), nil
}

func (s *CatalogQueryService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logging.WithComponentAndFields(componentQuery, logging.Fields{"key": key}).
			WithError(err).Warn("cache read failed, falling back to store")
	}
	return false
}

func (s *CatalogQueryService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	// Log but don't fail if caching fails
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		logging.WithComponentAndFields(componentQuery, logging.Fields{"key": key}).
			WithError(err).Warn("cache write failed")
	}
}

// categorySlug turns "Atta & Grains" into "atta-grains"
func categorySlug(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '&' || r == '/' || r == ',' {
			return ' '
		}
		return r
	}, name)
	return strcase.ToKebab(strings.Join(strings.Fields(cleaned), " "))
}

func summarize(products []*domain.Product) []domain.ProductSummary {
	out := make([]domain.ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, toSummary(p))
	}
	return out
}

func toSummary(p *domain.Product) domain.ProductSummary {
	summary := domain.ProductSummary{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		CheapestAt: "N/A",
		Size:       domain.DefaultSize,
		Brands:     p.Brands(),
		Image:      productImage(p),
	}
	if p.BestPrice != nil {
		summary.CheapestAt = p.BestPrice.StoreName
		summary.Cost = p.BestPrice.Cost
		summary.Size = p.BestPrice.Size
	}
	return summary
}

// productImage prefers the first image of the best-price variant, then the
// first image anywhere in the product, then the placeholder
func productImage(p *domain.Product) string {
	if bp := p.BestPrice; bp != nil {
		for _, s := range p.Stores {
			if s.StoreName != bp.StoreName {
				continue
			}
			for _, v := range s.Variants {
				if v.Size == bp.Size && v.Cost == bp.Cost && len(v.Images) > 0 {
					return v.Images[0]
				}
			}
		}
	}
	for _, s := range p.Stores {
		for _, v := range s.Variants {
			if len(v.Images) > 0 {
				return v.Images[0]
			}
		}
	}
	return PlaceholderImage
}
