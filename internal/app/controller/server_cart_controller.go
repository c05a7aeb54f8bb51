package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// ServerCartController serves the cart mirrored from the shop API. Failures are also
// pushed to the session as error toasts by the store itself.
type ServerCartController struct{}

func NewServerCartController() *ServerCartController {
	return &ServerCartController{}
}

type AddServerCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

type UpdateServerCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart re-fetches the remote cart
// GET /api/v1/server-cart
func (ctrl *ServerCartController) GetCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	items, err := session.ServerCart.FetchCart(c.Request.Context())
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetState returns the last synchronized list without a network call
// GET /api/v1/server-cart/state
func (ctrl *ServerCartController) GetState(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.ServerCart.State())
}

// AddItem adds quantity (default 1) after a stock check
// POST /api/v1/server-cart
func (ctrl *ServerCartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req AddServerCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid server cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	items, err := session.ServerCart.AddToCartAsync(c.Request.Context(), req.ProductID, quantity)
	if err != nil {
		log.Warn("Failed to add to server cart", map[string]interface{}{
			"product_id": req.ProductID,
			"quantity":   quantity,
			"error":      err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "add product to cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// UpdateItem sets an absolute quantity
// PATCH /api/v1/server-cart/:id
func (ctrl *ServerCartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateServerCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	items, err := session.ServerCart.UpdateCartItemAsync(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		log.Warn("Failed to update server cart item", map[string]interface{}{
			"item_id":  itemID,
			"quantity": req.Quantity,
			"error":    err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "update cart item")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// RemoveItem
// DELETE /api/v1/server-cart/:id
func (ctrl *ServerCartController) RemoveItem(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := session.ServerCart.RemoveFromCartAsync(c.Request.Context(), itemID)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "remove cart item")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
