package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// StoreController edits the session's local catalog without touching the shop API.
type StoreController struct {
	now func() time.Time
}

func NewStoreController() *StoreController {
	return &StoreController{now: time.Now}
}

// GetItems
// GET /api/v1/store/items
func (ctrl *StoreController) GetItems(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items := session.Cart.Snapshot().Items
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// SetItems replaces the local catalog
// PUT /api/v1/store/items
func (ctrl *StoreController) SetItems(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var products []model.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Expected a list of products")
		return
	}
	session.Cart.SetProducts(products)

	items := session.Cart.Snapshot().Items
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// AddItem assigns a time-based id
// POST /api/v1/store/items
func (ctrl *StoreController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var product model.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		log.Warn("Invalid product payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}
	if product.Name == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "name is required")
		return
	}

	added := session.Cart.AddProduct(product, ctrl.now())
	c.JSON(http.StatusCreated, added)
}

// UpdateItem merges the provided fields
// PATCH /api/v1/store/items/:id
func (ctrl *StoreController) UpdateItem(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch model.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}
	patch.ID = id

	if !session.Cart.UpdateProduct(patch) {
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		return
	}
	for _, p := range session.Cart.Snapshot().Items {
		if p.ID == id {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
}

// DeleteItem also prunes the product from cart and wishlist
// DELETE /api/v1/store/items/:id
func (ctrl *StoreController) DeleteItem(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session.Cart.DeleteProduct(c.Request.Context(), id)
	c.JSON(http.StatusOK, session.Cart.Snapshot())
}
