package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simplespend/backend/internal/domain"
)

// maxIngestBody caps an uploaded export
const maxIngestBody = 64 << 20

// IngestCatalog handles POST /admin/catalog/ingest?mode; the body is the raw export
func (h *Handler) IngestCatalog(c *gin.Context) {
	mode := domain.IngestMode(c.DefaultQuery("mode", string(domain.IngestRebuild)))

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "export too large"})
			return
		}
		respondError(c, fmt.Errorf("%w: reading body: %v", domain.ErrInvalidInput, err))
		return
	}

	result, err := h.catalog.Ingest(c.Request.Context(), raw, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RefreshCatalog handles POST /admin/catalog/refresh?mode and pulls every configured source
func (h *Handler) RefreshCatalog(c *gin.Context) {
	mode := domain.IngestMode(c.DefaultQuery("mode", string(domain.IngestIncremental)))
	if !mode.Valid() {
		respondError(c, fmt.Errorf("%w: unknown ingest mode %q", domain.ErrInvalidInput, mode))
		return
	}

	results, err := h.catalog.RefreshFromSources(c.Request.Context(), mode)
	if err != nil && len(results) == 0 {
		respondError(c, err)
		return
	}

	body := gin.H{"results": results}
	if err != nil {
		body["error"] = "some sources failed"
	}
	c.JSON(http.StatusOK, body)
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
