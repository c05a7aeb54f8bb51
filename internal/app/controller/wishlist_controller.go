package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type WishlistController struct {
	notifier service.Notifier
}

func NewWishlistController(notifier service.Notifier) *WishlistController {
	if notifier == nil {
		notifier = service.NopNotifier()
	}
	return &WishlistController{
		notifier: notifier,
	}
}

type AddToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetWishlist
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	wishlist := session.Cart.Snapshot().Wishlist
	c.JSON(http.StatusOK, gin.H{
		"wishlist": wishlist,
		"count":    len(wishlist),
	})
}

// AddToWishlist is a no-op for products already saved
// POST /api/v1/wishlist
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to wishlist request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}

	product, err := resolveProduct(c.Request.Context(), session, req.ProductID)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch product")
		return
	}

	session.Cart.AddToWishlist(c.Request.Context(), *product, session.Username())
	ctrl.notifier.Notify(session.ID, model.NewToast(model.ToastSuccess, "Added to wishlist"))

	wishlist := session.Cart.Snapshot().Wishlist
	c.JSON(http.StatusOK, gin.H{
		"wishlist": wishlist,
		"count":    len(wishlist),
	})
}

// RemoveFromWishlist
// DELETE /api/v1/wishlist/:product_id
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	name := ""
	for _, entry := range session.Cart.Snapshot().Wishlist {
		if entry.ID == productID {
			name = entry.Name
			break
		}
	}

	session.Cart.RemoveFromWishlist(c.Request.Context(), productID, session.Username())
	if name != "" {
		ctrl.notifier.Notify(session.ID, model.NewToast(model.ToastInfo, name+" removed from wishlist"))
	}

	wishlist := session.Cart.Snapshot().Wishlist
	c.JSON(http.StatusOK, gin.H{
		"wishlist": wishlist,
		"count":    len(wishlist),
	})
}

// MoveToCart moves a saved product into the cart
// POST /api/v1/wishlist/:product_id/move-to-cart
func (ctrl *WishlistController) MoveToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	product, err := session.Cart.MoveToCart(c.Request.Context(), productID, session.Username())
	if err != nil {
		log.Warn("Move to cart failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "move to cart")
		return
	}
	ctrl.notifier.Notify(session.ID, model.NewToast(model.ToastSuccess, product.Name+" added to cart"))

	state := session.Cart.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"cart":     state.Cart,
		"wishlist": state.Wishlist,
	})
}
