package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simplespend/backend/internal/domain"
)

// updateCartRequest is the body of PUT /cart/:productId
type updateCartRequest struct {
	SelectedStore string            `json:"selectedStore" binding:"required"`
	SelectedSize  string            `json:"selectedSize" binding:"required"`
	Action        domain.CartAction `json:"action" binding:"required,oneof=increment decrement"`
}

// removeCartRequest selects the line of DELETE /cart/:productId
type removeCartRequest struct {
	SelectedStore string `form:"store" binding:"required"`
	SelectedSize  string `form:"size" binding:"required"`
}

// mergeCartRequest is the body of POST /cart/merge
type mergeCartRequest struct {
	Items []domain.CartItem `json:"items"`
}

// GetCart handles GET /cart
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddToCart handles POST /cart
func (h *Handler) AddToCart(c *gin.Context) {
	var item domain.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	view, err := h.carts.Add(c.Request.Context(), c.GetString(userIDKey), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateCartItem handles PUT /cart/:productId
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var request updateCartRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	view, err := h.carts.Update(
		c.Request.Context(),
		c.GetString(userIDKey),
		c.Param("productId"),
		request.SelectedStore,
		request.SelectedSize,
		request.Action,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveCartItem handles DELETE /cart/:productId?store&size
func (h *Handler) RemoveCartItem(c *gin.Context) {
	var request removeCartRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	view, err := h.carts.Remove(
		c.Request.Context(),
		c.GetString(userIDKey),
		c.Param("productId"),
		request.SelectedStore,
		request.SelectedSize,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// MergeCart handles POST /cart/merge
func (h *Handler) MergeCart(c *gin.Context) {
	var request mergeCartRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	view, err := h.carts.Merge(c.Request.Context(), c.GetString(userIDKey), request.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
