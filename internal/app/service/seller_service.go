package service

import (
	"bytes"
	"context"
	"io"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/catalogsheet"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

const ProductsPerPage = 5

// ImagePresigner issues direct-upload URLs for product images.
type ImagePresigner interface {
	PresignProductImage(ctx context.Context, seller, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type ProductPage struct {
	Items      []model.Product `json:"items"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

type ImportResult struct {
	Created  int                     `json:"created"`
	Updated  int                     `json:"updated"`
	Failed   int                     `json:"failed"`
	RowError []catalogsheet.RowError `json:"row_errors,omitempty"`
}

type SellerService interface {
	ListProducts(ctx context.Context, session *Session, page int) (*ProductPage, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	SaveProduct(ctx context.Context, session *Session, product model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, session *Session, productID uint) error
	PresignImageUpload(ctx context.Context, session *Session, filename, contentType string) (*storage.PresignedURLResponse, error)
	ExportProducts(ctx context.Context, session *Session) ([]byte, error)
	ImportProducts(ctx context.Context, session *Session, r io.Reader) (*ImportResult, error)
}

type sellerService struct {
	api       *shopapi.Client
	presigner ImagePresigner
	notifier  Notifier
}

// NewSellerService accepts a nil presigner when image upload is not configured.
func NewSellerService(api *shopapi.Client, presigner ImagePresigner, notifier Notifier) SellerService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &sellerService{api: api, presigner: presigner, notifier: notifier}
}

// ListProducts refreshes the session's catalog from the shop API and returns one page of it.
func (s *sellerService) ListProducts(ctx context.Context, session *Session, page int) (*ProductPage, error) {
	products, err := s.refresh(ctx, session)
	if err != nil {
		s.notifier.Notify(session.ID, model.NewToast(model.ToastError, "Failed to fetch products from server"))
		return nil, err
	}
	return paginate(products, page, ProductsPerPage), nil
}

// paginate returns an empty page past the last one; page is checked before multiplying
// so huge values cannot overflow the offset.
func paginate(products []model.Product, page, perPage int) *ProductPage {
	total := len(products)
	totalPages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	result := &ProductPage{
		Items:      []model.Product{},
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
	if page > totalPages {
		return result
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	result.Items = append(result.Items, products[start:end]...)
	return result
}

func (s *sellerService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		logger.Error("Failed to fetch categories", err)
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// SaveProduct updates when product.ID is set and creates otherwise, then re-fetches the list.
func (s *sellerService) SaveProduct(ctx context.Context, session *Session, product model.Product) (*model.Product, error) {
	saved, err := s.save(ctx, session, product)
	if err != nil {
		logger.Error("Failed to save product", err, map[string]interface{}{
			"seller":     session.Username(),
			"product_id": product.ID,
		})
		s.notifier.Notify(session.ID, model.NewToast(model.ToastError, "Save failed"))
		return nil, err
	}

	s.notifier.Notify(session.ID, model.NewToast(model.ToastSuccess, "Saved successfully"))
	if _, err := s.refresh(ctx, session); err != nil {
		logger.Warn("Product saved but list refresh failed", map[string]interface{}{
			"seller": session.Username(),
			"error":  err.Error(),
		})
	}
	return saved, nil
}

func (s *sellerService) save(ctx context.Context, session *Session, product model.Product) (*model.Product, error) {
	product.IsActive = true
	input := shopapi.ProductInputFrom(product)
	if product.ID != 0 {
		return session.API().UpdateProduct(ctx, product.ID, input)
	}
	return session.API().CreateProduct(ctx, input)
}

// DeleteProduct deletes remotely, prunes the product from the session's cart and wishlist,
// then re-fetches the list.
func (s *sellerService) DeleteProduct(ctx context.Context, session *Session, productID uint) error {
	if err := session.API().DeleteProduct(ctx, productID); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"seller":     session.Username(),
			"product_id": productID,
		})
		s.notifier.Notify(session.ID, model.NewToast(model.ToastError, "Failed to delete product from server"))
		if isNotFound(err) {
			return ErrProductNotFound
		}
		return err
	}

	session.Cart.DeleteProduct(ctx, productID)
	s.notifier.Notify(session.ID, model.NewToast(model.ToastInfo, "Product deleted successfully"))

	if _, err := s.refresh(ctx, session); err != nil {
		logger.Warn("Product deleted but list refresh failed", map[string]interface{}{
			"seller": session.Username(),
			"error":  err.Error(),
		})
	}
	return nil
}

func (s *sellerService) PresignImageUpload(ctx context.Context, session *Session, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if s.presigner == nil {
		return nil, ErrUploadUnavailable
	}
	return s.presigner.PresignProductImage(ctx, session.Username(), filename, contentType)
}

func (s *sellerService) ExportProducts(ctx context.Context, session *Session) ([]byte, error) {
	products, err := s.refresh(ctx, session)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := catalogsheet.Write(&buf, products); err != nil {
		logger.Error("Failed to render product sheet", err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportProducts saves each parsed row; rows with an id update, others create.
func (s *sellerService) ImportProducts(ctx context.Context, session *Session, r io.Reader) (*ImportResult, error) {
	products, rowErrs, err := catalogsheet.Read(r)
	if err != nil {
		return nil, invalidSheet(err)
	}

	result := &ImportResult{RowError: rowErrs, Failed: len(rowErrs)}
	for _, p := range products {
		if _, err := s.save(ctx, session, p); err != nil {
			logger.Warn("Product import row failed", map[string]interface{}{
				"seller": session.Username(),
				"name":   p.Name,
				"error":  err.Error(),
			})
			result.Failed++
			continue
		}
		if p.ID != 0 {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if _, err := s.refresh(ctx, session); err != nil {
		logger.Warn("Import finished but list refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	logger.Info("Products imported", map[string]interface{}{
		"seller":  session.Username(),
		"created": result.Created,
		"updated": result.Updated,
		"failed":  result.Failed,
	})
	return result, nil
}

func (s *sellerService) refresh(ctx context.Context, session *Session) ([]model.Product, error) {
	products, err := session.API().ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	session.Cart.SetProducts(products)
	return products, nil
}
