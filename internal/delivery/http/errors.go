package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
)

// respondError maps domain errors to status codes. Unknown errors are logged
// and answered with a generic message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrCartItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, domain.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "catalog changed concurrently, retry"})
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrFeedUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service unavailable"})
	default:
		logging.WithComponentAndFields(componentHTTP, logging.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(requestIDKey),
		}).WithError(err).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
