package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

// ServerCartState mirrors the remote cart plus the status of the latest request.
type ServerCartState struct {
	Items   []model.ServerCartItem `json:"items"`
	Status  model.RequestStatus    `json:"status"`
	Loading bool                   `json:"loading"`
	Error   string                 `json:"error,omitempty"`
}

// SyncedCartStore mirrors the shop API cart. Every mutation is followed by a full
// re-fetch whose result replaces the in-memory list; nothing is applied optimistically.
type SyncedCartStore interface {
	FetchCart(ctx context.Context) ([]model.ServerCartItem, error)
	AddToCartAsync(ctx context.Context, productID uint, quantity int) ([]model.ServerCartItem, error)
	RemoveFromCartAsync(ctx context.Context, itemID uint) ([]model.ServerCartItem, error)
	UpdateCartItemAsync(ctx context.Context, itemID uint, quantity int) ([]model.ServerCartItem, error)
	Loading() bool
	State() ServerCartState
}

type syncedCartStore struct {
	api       *shopapi.Client
	notifier  Notifier
	sessionID string

	mu       sync.Mutex
	items    []model.ServerCartItem
	status   model.RequestStatus
	inFlight int
	lastErr  string
}

// NewSyncedCartStore binds the store to a token-carrying client. Rejections are also
// pushed to the session as error toasts.
func NewSyncedCartStore(api *shopapi.Client, notifier Notifier, sessionID string) SyncedCartStore {
	return &syncedCartStore{
		api:       api,
		notifier:  notifier,
		sessionID: sessionID,
		items:     []model.ServerCartItem{},
		status:    model.StatusIdle,
	}
}

func (s *syncedCartStore) FetchCart(ctx context.Context) ([]model.ServerCartItem, error) {
	s.begin()
	items, err := s.api.ListCart(ctx)
	return s.settle("fetch", items, err)
}

// AddToCartAsync checks product stock against what is already in the cart before posting.
func (s *syncedCartStore) AddToCartAsync(ctx context.Context, productID uint, quantity int) ([]model.ServerCartItem, error) {
	if quantity < 1 {
		return nil, s.reject("add", ErrInvalidQuantity)
	}
	s.begin()

	product, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		return s.settle("add", nil, err)
	}
	current, err := s.api.ListCart(ctx)
	if err != nil {
		return s.settle("add", nil, err)
	}

	inCart := 0
	for _, item := range current {
		if item.Product == productID {
			inCart = item.Quantity
			break
		}
	}
	if inCart+quantity > product.Stock {
		err := fmt.Errorf("%w. available: %d, already in cart: %d", ErrInsufficientStock, product.Stock, inCart)
		return s.settle("add", nil, err)
	}

	if err := s.api.AddCartItem(ctx, productID, quantity); err != nil {
		return s.settle("add", nil, err)
	}
	items, err := s.api.ListCart(ctx)
	return s.settle("add", items, err)
}

func (s *syncedCartStore) RemoveFromCartAsync(ctx context.Context, itemID uint) ([]model.ServerCartItem, error) {
	s.begin()

	if err := s.api.DeleteCartItem(ctx, itemID); err != nil {
		return s.settle("remove", nil, err)
	}
	items, err := s.api.ListCart(ctx)
	return s.settle("remove", items, err)
}

// UpdateCartItemAsync sets an absolute quantity after checking it against product stock.
func (s *syncedCartStore) UpdateCartItemAsync(ctx context.Context, itemID uint, quantity int) ([]model.ServerCartItem, error) {
	if quantity < 1 {
		return nil, s.reject("update", ErrInvalidQuantity)
	}
	s.begin()

	current, err := s.api.ListCart(ctx)
	if err != nil {
		return s.settle("update", nil, err)
	}
	var target *model.ServerCartItem
	for i := range current {
		if current[i].ID == itemID {
			target = &current[i]
			break
		}
	}
	if target == nil {
		return s.settle("update", nil, ErrCartItemNotFound)
	}

	product, err := s.api.GetProduct(ctx, target.Product)
	if err != nil {
		return s.settle("update", nil, err)
	}
	if quantity > product.Stock {
		err := fmt.Errorf("%w. available: %d", ErrInsufficientStock, product.Stock)
		return s.settle("update", nil, err)
	}

	if err := s.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		return s.settle("update", nil, err)
	}
	items, err := s.api.ListCart(ctx)
	return s.settle("update", items, err)
}

func (s *syncedCartStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

func (s *syncedCartStore) State() ServerCartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ServerCartState{
		Items:   append([]model.ServerCartItem{}, s.items...),
		Status:  s.status,
		Loading: s.inFlight > 0,
		Error:   s.lastErr,
	}
}

func (s *syncedCartStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.status = model.StatusPending
	s.lastErr = ""
}

// settle finishes a request started with begin. On success the fetched list replaces
// the current one wholesale; the last request to complete wins.
func (s *syncedCartStore) settle(op string, items []model.ServerCartItem, err error) ([]model.ServerCartItem, error) {
	s.mu.Lock()
	s.inFlight--
	if err != nil {
		s.status = model.StatusRejected
		s.lastErr = shopapi.Message(err)
		s.mu.Unlock()
		return nil, s.fail(op, err)
	}
	if items == nil {
		items = []model.ServerCartItem{}
	}
	s.items = items
	s.status = model.StatusFulfilled
	out := append([]model.ServerCartItem{}, items...)
	s.mu.Unlock()
	return out, nil
}

// reject fails a request that never reached the network.
func (s *syncedCartStore) reject(op string, err error) error {
	s.mu.Lock()
	s.status = model.StatusRejected
	s.lastErr = err.Error()
	s.mu.Unlock()
	return s.fail(op, err)
}

func (s *syncedCartStore) fail(op string, err error) error {
	logger.Warn("Server cart request rejected", map[string]interface{}{
		"session_id": s.sessionID,
		"operation":  op,
		"error":      err.Error(),
	})
	if s.notifier != nil {
		s.notifier.Notify(s.sessionID, model.NewToast(model.ToastError, shopapi.Message(err)))
	}
	return err
}
