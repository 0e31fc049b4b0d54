package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
)

const componentIngest = "catalog.ingest"

// maxSaveAttempts bounds the reload-merge-save loop of incremental ingestion
const maxSaveAttempts = 3

// CatalogServiceConfig holds configuration for the catalog ingest service
type CatalogServiceConfig struct {
	DefaultStore    string
	DefaultCategory string
	// IncrementalPolicy is the listing policy applied by incremental ingestion.
	// Rebuilds always append.
	IncrementalPolicy ListingPolicy
}

// CatalogService writes store exports into the catalog
type CatalogService struct {
	products   domain.ProductRepository
	cache      domain.CacheRepository
	sources    []domain.CatalogSource
	normalizer *Normalizer
	config     CatalogServiceConfig
}

// NewCatalogService creates an ingest service. cache may be nil.
func NewCatalogService(
	products domain.ProductRepository,
	cache domain.CacheRepository,
	sources []domain.CatalogSource,
	config CatalogServiceConfig,
) *CatalogService {
	if config.DefaultCategory == "" {
		config.DefaultCategory = DefaultCategory
	}
	if config.IncrementalPolicy == "" {
		config.IncrementalPolicy = ListingReplace
	}

	return &CatalogService{
		products:   products,
		cache:      cache,
		sources:    sources,
		normalizer: NewNormalizer(config.DefaultStore),
		config:     config,
	}
}

// Ingest normalizes a raw export and applies it to the catalog.
//
// A rebuild merges the whole export in one pass and swaps the catalog
// atomically. An incremental run merges each product into its stored version,
// retrying on concurrent updates.
func (s *CatalogService) Ingest(ctx context.Context, raw []byte, mode domain.IngestMode) (*domain.IngestResult, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown ingest mode %q", domain.ErrInvalidInput, mode)
	}

	offers, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	log := logging.WithComponentAndFields(componentIngest, logging.Fields{
		"mode":   mode,
		"offers": len(offers),
	})
	log.Info("ingesting catalog export")

	var written int
	switch mode {
	case domain.IngestRebuild:
		written, err = s.rebuild(ctx, offers)
	case domain.IngestIncremental:
		written, err = s.incremental(ctx, offers)
	}

	// Partial incremental writes are visible, so invalidate even on failure
	if written > 0 {
		s.invalidate(ctx)
	}
	if err != nil {
		log.WithError(err).WithField("written", written).Error("catalog ingestion failed")
		return nil, err
	}

	log.WithField("written", written).Info("catalog ingestion finished")
	return &domain.IngestResult{
		Mode:            mode,
		OffersRead:      len(offers),
		ProductsWritten: written,
	}, nil
}

func (s *CatalogService) rebuild(ctx context.Context, offers []domain.StoreOffer) (int, error) {
	products := Merge(MergeConfig{
		DefaultCategory: s.config.DefaultCategory,
		Policy:          ListingAppend,
	}, offers)

	if err := s.products.ReplaceAll(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

func (s *CatalogService) incremental(ctx context.Context, offers []domain.StoreOffer) (int, error) {
	groups := groupOffers(offers)

	written := 0
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := s.mergeAndSave(ctx, group); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// mergeAndSave applies every offer of one product to its stored version. On a
// version conflict the product is reloaded and the offers merged again.
func (s *CatalogService) mergeAndSave(ctx context.Context, offers []domain.StoreOffer) error {
	name := offers[0].ProductName

	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		existing, err := s.products.FindByName(ctx, name)
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return err
		}

		merger := NewMerger(MergeConfig{
			DefaultCategory: s.config.DefaultCategory,
			Policy:          s.config.IncrementalPolicy,
		}, existing)
		for _, offer := range offers {
			merger.Add(offer)
		}

		touched := merger.Touched()
		if len(touched) == 0 {
			return nil
		}

		lastErr = s.products.Save(ctx, touched[0])
		if lastErr == nil {
			return nil
		}
		// a concurrent delete surfaces as not found; the reload re-inserts it
		if !errors.Is(lastErr, domain.ErrVersionConflict) && !errors.Is(lastErr, domain.ErrProductNotFound) {
			return lastErr
		}

		logging.WithComponentAndFields(componentIngest, logging.Fields{
			"product": name,
			"attempt": attempt,
			"reason":  lastErr.Error(),
		}).Warn("product changed concurrently, retrying merge")
	}

	return fmt.Errorf("saving %q after %d attempts: %w", name, maxSaveAttempts, lastErr)
}

// groupOffers buckets offers by merge key, keeping first-occurrence order of
// products and arrival order of offers
func groupOffers(offers []domain.StoreOffer) [][]domain.StoreOffer {
	index := make(map[string]int)
	var groups [][]domain.StoreOffer
	for _, offer := range offers {
		key := domain.NameKey(offer.ProductName)
		if key == "" || len(offer.Variants) == 0 {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], offer)
	}
	return groups
}

// RefreshFromSources fetches every configured source and ingests them in order.
// A source that fails is logged and skipped; the first error is returned after
// all sources ran.
func (s *CatalogService) RefreshFromSources(ctx context.Context, mode domain.IngestMode) ([]domain.IngestResult, error) {
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("%w: no catalog sources configured", domain.ErrInvalidInput)
	}

	var (
		results  []domain.IngestResult
		firstErr error
	)
	for _, source := range s.sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		log := logging.WithComponentAndFields(componentIngest, logging.Fields{"source": source.Name()})

		raw, err := source.Fetch(ctx)
		if err != nil {
			log.WithError(err).Error("fetching catalog source failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		result, err := s.Ingest(ctx, raw, mode)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, *result)
	}

	return results, firstErr
}

// DeleteProduct removes a product from the catalog
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrProductNotFound
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	logging.WithComponentAndFields(componentIngest, logging.Fields{"id": id}).Info("product deleted")
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, CatalogCachePrefix); err != nil {
		logging.WithComponent(componentIngest).WithError(err).Warn("failed to invalidate catalog cache")
	}
}
