package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/simplespend/backend/internal/domain"
)

// ListProducts handles GET /products?page&limit
func (h *Handler) ListProducts(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.query.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchProducts handles GET /products/search?q&category; q is required
func (h *Handler) SearchProducts(c *gin.Context) {
	var request domain.SearchRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	results, err := h.query.SearchProducts(c.Request.Context(), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Search handles GET /search?q&category and adds suggestions to the results
func (h *Handler) Search(c *gin.Context) {
	var request domain.SearchRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	result, err := h.query.Search(c.Request.Context(), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PopularProducts handles GET /products/popular?limit
func (h *Handler) PopularProducts(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.query.Popular(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Categories handles GET /products/categories
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.query.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ProductsByCategory handles GET /products/category/:category
func (h *Handler) ProductsByCategory(c *gin.Context) {
	results, err := h.query.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// BestDeals handles GET /products/best-deals?store&brand
func (h *Handler) BestDeals(c *gin.Context) {
	var request domain.DealsRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	results, err := h.query.BestDeals(c.Request.Context(), &request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// CompareProduct handles GET /products/:id/compare
func (h *Handler) CompareProduct(c *gin.Context) {
	view, err := h.query.Compare(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetProduct handles GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.query.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// intQuery parses an optional integer query parameter
func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}
