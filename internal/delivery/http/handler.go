package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simplespend/backend/internal/domain"
)

// CatalogQuerier answers catalog reads
type CatalogQuerier interface {
	List(ctx context.Context, page, limit int) (*domain.ProductPage, error)
	Search(ctx context.Context, request *domain.SearchRequest) (*domain.SearchResult, error)
	SearchProducts(ctx context.Context, request *domain.SearchRequest) ([]domain.ProductSummary, error)
	ByCategory(ctx context.Context, category string) ([]domain.ProductSummary, error)
	BestDeals(ctx context.Context, request *domain.DealsRequest) ([]domain.ProductSummary, error)
	Compare(ctx context.Context, id string) (*domain.ComparisonView, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Popular(ctx context.Context, limit int) ([]domain.ProductSummary, error)
	Categories(ctx context.Context) ([]domain.CategoryInfo, error)
}

// CatalogWriter changes the catalog
type CatalogWriter interface {
	Ingest(ctx context.Context, raw []byte, mode domain.IngestMode) (*domain.IngestResult, error)
	RefreshFromSources(ctx context.Context, mode domain.IngestMode) ([]domain.IngestResult, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CartManager manages user carts
type CartManager interface {
	Get(ctx context.Context, userID string) (*domain.CartView, error)
	Add(ctx context.Context, userID string, item domain.CartItem) (*domain.CartView, error)
	Update(ctx context.Context, userID, productID, store, size string, action domain.CartAction) (*domain.CartView, error)
	Remove(ctx context.Context, userID, productID, store, size string) (*domain.CartView, error)
	Merge(ctx context.Context, userID string, items []domain.CartItem) (*domain.CartView, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	query   CatalogQuerier
	catalog CatalogWriter
	carts   CartManager
	version string
}

// NewHandler creates a new HTTP handler
func NewHandler(query CatalogQuerier, catalog CatalogWriter, carts CartManager) *Handler {
	return &Handler{
		query:   query,
		catalog: catalog,
		carts:   carts,
		version: "1.0.0",
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "simplespend-backend",
		"version": h.version,
	})
}
