package http

import (
	"github.com/gin-gonic/gin"
	"github.com/simplespend/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, identity IdentityResolver) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if identity == nil {
		identity = HeaderIdentityResolver{}
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/search", handler.SearchProducts)
			products.GET("/popular", handler.PopularProducts)
			products.GET("/categories", handler.Categories)
			products.GET("/category/:category", handler.ProductsByCategory)
			products.GET("/best-deals", handler.BestDeals)
			products.GET("/:id/compare", handler.CompareProduct)
			products.GET("/:id", handler.GetProduct)
		}

		v1.GET("/search", handler.Search)

		cart := v1.Group("/cart", RequireIdentity(identity))
		{
			cart.GET("", handler.GetCart)
			cart.POST("", handler.AddToCart)
			cart.POST("/merge", handler.MergeCart)
			cart.PUT("/:productId", handler.UpdateCartItem)
			cart.DELETE("/:productId", handler.RemoveCartItem)
		}

		admin := v1.Group("/admin", AdminAuthMiddleware(cfg.Server.AdminToken))
		{
			admin.POST("/catalog/ingest", handler.IngestCatalog)
			admin.POST("/catalog/refresh", handler.RefreshCatalog)
			admin.DELETE("/products/:id", handler.DeleteProduct)
		}
	}

	return router
}
