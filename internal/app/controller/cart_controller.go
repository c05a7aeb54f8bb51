package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

// CartController serves the session's locally persisted cart.
type CartController struct {
	notifier service.Notifier
}

func NewCartController(notifier service.Notifier) *CartController {
	if notifier == nil {
		notifier = service.NopNotifier()
	}
	return &CartController{
		notifier: notifier,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetCart returns the local cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	state := session.Cart.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"cart":  state.Cart,
		"count": len(state.Cart),
		"total": session.Cart.CartTotal(),
	})
}

// AddToCart adds one unit of the product
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}

	product, err := resolveProduct(c.Request.Context(), session, req.ProductID)
	if err != nil {
		log.Warn("Product lookup failed", map[string]interface{}{
			"product_id": req.ProductID,
			"error":      err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "fetch product")
		return
	}

	session.Cart.AddToCart(c.Request.Context(), *product, session.Username())
	ctrl.notifier.Notify(session.ID, model.NewToast(model.ToastSuccess, "Added to cart"))

	state := session.Cart.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"cart":  state.Cart,
		"count": len(state.Cart),
		"total": session.Cart.CartTotal(),
	})
}

// RemoveFromCart drops the line item of the product
// DELETE /api/v1/cart/:product_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	session.Cart.RemoveFromCart(c.Request.Context(), productID, session.Username())
	ctrl.notifier.Notify(session.ID, model.NewToast(model.ToastInfo, "Item removed from cart"))

	state := session.Cart.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"cart":  state.Cart,
		"count": len(state.Cart),
		"total": session.Cart.CartTotal(),
	})
}

// ClearCart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	session.Cart.ClearCart(c.Request.Context(), session.Username())
	c.JSON(http.StatusOK, gin.H{
		"cart":  []model.LineItem{},
		"count": 0,
		"total": 0,
	})
}

// GetState returns the whole local store
// GET /api/v1/cart/state
func (ctrl *CartController) GetState(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Cart.Snapshot())
}

// resolveProduct prefers the session's catalog and falls back to the shop API.
func resolveProduct(ctx context.Context, session *service.Session, productID uint) (*model.Product, error) {
	for _, p := range session.Cart.Snapshot().Items {
		if p.ID == productID {
			product := p
			return &product, nil
		}
	}

	product, err := session.API().GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, shopapi.ErrNotFound) {
			return nil, service.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}
