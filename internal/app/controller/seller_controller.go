package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SellerController is the vendor product console. Routes require the vendor role.
type SellerController struct {
	seller service.SellerService
}

func NewSellerController(seller service.SellerService) *SellerController {
	return &SellerController{
		seller: seller,
	}
}

type PresignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size"`
}

// GetProducts returns one page of the vendor's product list
// GET /api/v1/seller/products?page=1
func (ctrl *SellerController) GetProducts(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid page")
		return
	}

	result, err := ctrl.seller.ListProducts(c.Request.Context(), session, page)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch products")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCategories
// GET /api/v1/seller/categories
func (ctrl *SellerController) GetCategories(c *gin.Context) {
	categories, err := ctrl.seller.ListCategories(c.Request.Context())
	if err != nil {
		apperrors.ParseAndRespond(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// CreateProduct
// POST /api/v1/seller/products
func (ctrl *SellerController) CreateProduct(c *gin.Context) {
	ctrl.saveProduct(c, 0, http.StatusCreated)
}

// UpdateProduct
// PUT /api/v1/seller/products/:id
func (ctrl *SellerController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctrl.saveProduct(c, id, http.StatusOK)
}

func (ctrl *SellerController) saveProduct(c *gin.Context, id uint, status int) {
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
	product.ID = id

	saved, err := ctrl.seller.SaveProduct(c.Request.Context(), session, product)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "save product")
		return
	}
	c.JSON(status, saved)
}

// DeleteProduct
// DELETE /api/v1/seller/products/:id
func (ctrl *SellerController) DeleteProduct(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.seller.DeleteProduct(c.Request.Context(), session, id); err != nil {
		apperrors.ParseAndRespond(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// PresignImage issues a direct S3 upload URL for a product image
// POST /api/v1/seller/uploads/presign
func (ctrl *SellerController) PresignImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename and content_type are required")
		return
	}
	if err := storage.ValidateContentType(req.ContentType, storage.AllowedImageTypes); err != nil {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		return
	}
	if req.FileSize > 0 {
		if err := storage.ValidateFileSize(req.FileSize, storage.MaxImageSize); err != nil {
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, err.Error())
			return
		}
	}

	presigned, err := ctrl.seller.PresignImageUpload(c.Request.Context(), session, req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrUploadUnavailable) {
			apperrors.ParseAndRespond(c, err, "presign upload")
			return
		}
		log.Error("Failed to presign image upload", err, map[string]interface{}{
			"filename": req.Filename,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}
	c.JSON(http.StatusOK, presigned)
}

// ExportProducts downloads the product list as an xlsx workbook
// GET /api/v1/seller/products/export
func (ctrl *SellerController) ExportProducts(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	data, err := ctrl.seller.ExportProducts(c.Request.Context(), session)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "export products")
		return
	}

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ImportProducts creates or updates products from an uploaded xlsx workbook (form field "file")
// POST /api/v1/seller/products/import
func (ctrl *SellerController) ImportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session, ok := requireSession(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded sheet", err)
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.UploadFailed, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	result, err := ctrl.seller.ImportProducts(c.Request.Context(), session, file)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "import products")
		return
	}
	c.JSON(http.StatusOK, result)
}
