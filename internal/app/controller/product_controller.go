package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// ProductController serves the public catalog.
type ProductController struct {
	catalog service.CatalogService
}

func NewProductController(catalog service.CatalogService) *ProductController {
	return &ProductController{
		catalog: catalog,
	}
}

// GetProducts fetches the product list. With a session, the list also replaces the
// session's local catalog.
// GET /api/v1/products
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.catalog.FetchProducts(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch products", err)
		apperrors.ParseAndRespond(c, err, "fetch products")
		return
	}

	if session, ok := middleware.GetSession(c); ok {
		session.Cart.SetProducts(products)
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProductByID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.catalog.FetchProductByID(c.Request.Context(), id)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// ClearSelectedProduct
// DELETE /api/v1/products/selected
func (ctrl *ProductController) ClearSelectedProduct(c *gin.Context) {
	ctrl.catalog.ClearSelectedProduct()
	c.Status(http.StatusNoContent)
}

// GetState returns the cached catalog with its loading and error flags
// GET /api/v1/products/state
func (ctrl *ProductController) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.catalog.State())
}

// GetCategories
// GET /api/v1/categories
func (ctrl *ProductController) GetCategories(c *gin.Context) {
	categories, err := ctrl.catalog.FetchCategories(c.Request.Context())
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}
