package service

import (
	"context"
	"sync"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

// CatalogState is the product list and selection as last fetched from the shop API.
type CatalogState struct {
	Items           []model.Product `json:"items"`
	SelectedProduct *model.Product  `json:"selected_product"`
	Loading         bool            `json:"loading"`
	Error           string          `json:"error,omitempty"`
}

type CatalogService interface {
	FetchProducts(ctx context.Context) ([]model.Product, error)
	FetchProductByID(ctx context.Context, id uint) (*model.Product, error)
	ClearSelectedProduct()
	FetchCategories(ctx context.Context) ([]model.Category, error)
	State() CatalogState
}

type catalogService struct {
	api *shopapi.Client

	mu       sync.Mutex
	state    CatalogState
	inFlight int
}

func NewCatalogService(api *shopapi.Client) CatalogService {
	return &catalogService{
		api:   api,
		state: CatalogState{Items: []model.Product{}},
	}
}

func (s *catalogService) FetchProducts(ctx context.Context) ([]model.Product, error) {
	s.pending()

	products, err := s.api.ListProducts(ctx)
	if err != nil {
		s.rejected(err)
		logger.Error("Failed to fetch products", err)
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}

	s.mu.Lock()
	s.inFlight--
	s.state.Loading = s.inFlight > 0
	s.state.Items = products
	s.mu.Unlock()

	logger.Debug("Products fetched", map[string]interface{}{
		"count": len(products),
	})
	return append([]model.Product{}, products...), nil
}

func (s *catalogService) FetchProductByID(ctx context.Context, id uint) (*model.Product, error) {
	s.pending()

	product, err := s.api.GetProduct(ctx, id)
	if err != nil {
		s.rejected(err)
		if isNotFound(err) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	s.mu.Lock()
	s.inFlight--
	s.state.Loading = s.inFlight > 0
	selected := *product
	s.state.SelectedProduct = &selected
	s.mu.Unlock()
	return product, nil
}

func (s *catalogService) ClearSelectedProduct() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedProduct = nil
}

// FetchCategories is not part of the cached catalog state.
func (s *catalogService) FetchCategories(ctx context.Context) ([]model.Category, error) {
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

func (s *catalogService) State() CatalogState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	state.Items = append([]model.Product{}, s.state.Items...)
	if s.state.SelectedProduct != nil {
		selected := *s.state.SelectedProduct
		state.SelectedProduct = &selected
	}
	return state
}

func (s *catalogService) pending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.state.Loading = true
	s.state.Error = ""
}

func (s *catalogService) rejected(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.state.Loading = s.inFlight > 0
	s.state.Error = shopapi.Message(err)
}
