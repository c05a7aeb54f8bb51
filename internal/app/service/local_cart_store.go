package service

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// CartState is the renderable state of one session's local store.
type CartState struct {
	Items       []model.Product       `json:"items"`
	Cart        []model.LineItem      `json:"cart"`
	Wishlist    []model.WishlistEntry `json:"wishlist"`
	CurrentUser string                `json:"current_user"`
}

// LocalCartStore holds the catalog, cart and wishlist of one session. Cart and wishlist
// mutations are ignored when user is empty and persist the whole list for that user.
type LocalCartStore interface {
	AddToCart(ctx context.Context, product model.Product, user string)
	AddToWishlist(ctx context.Context, product model.Product, user string)
	RemoveFromCart(ctx context.Context, productID uint, user string)
	RemoveFromWishlist(ctx context.Context, productID uint, user string)
	MoveToCart(ctx context.Context, productID uint, user string) (model.Product, error)
	ClearCart(ctx context.Context, user string)
	LoadUserCart(ctx context.Context, user string)
	LoadUserWishlist(ctx context.Context, user string)
	Logout()

	SetProducts(products []model.Product)
	AddProduct(product model.Product, now time.Time) model.Product
	UpdateProduct(patch model.ProductPatch) bool
	DeleteProduct(ctx context.Context, productID uint)

	Snapshot() CartState
	CartTotal() float64
}

type localCartStore struct {
	mu        sync.Mutex
	state     CartState
	carts     *UserCollection[model.LineItem]
	wishlists *UserCollection[model.WishlistEntry]
}

func NewLocalCartStore(
	carts *UserCollection[model.LineItem],
	wishlists *UserCollection[model.WishlistEntry],
) LocalCartStore {
	return &localCartStore{
		state:     emptyCartState(),
		carts:     carts,
		wishlists: wishlists,
	}
}

func emptyCartState() CartState {
	return CartState{
		Items:    []model.Product{},
		Cart:     []model.LineItem{},
		Wishlist: []model.WishlistEntry{},
	}
}

func (s *localCartStore) AddToCart(ctx context.Context, product model.Product, user string) {
	if user == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.state.Cart {
		if s.state.Cart[i].ID == product.ID {
			s.state.Cart[i].Qty++
			found = true
			break
		}
	}
	if !found {
		s.state.Cart = append(s.state.Cart, model.LineItem{Product: product, Qty: 1})
	}
	s.carts.Save(ctx, user, cloneLineItems(s.state.Cart))
	s.state.CurrentUser = user

	logger.Debug("Added product to local cart", map[string]interface{}{
		"user":       user,
		"product_id": product.ID,
	})
}

func (s *localCartStore) AddToWishlist(ctx context.Context, product model.Product, user string) {
	if user == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.state.Wishlist {
		if entry.ID == product.ID {
			return
		}
	}
	s.state.Wishlist = append(s.state.Wishlist, model.WishlistEntry{Product: product})
	s.wishlists.Save(ctx, user, cloneWishlist(s.state.Wishlist))
	s.state.CurrentUser = user
}

func (s *localCartStore) RemoveFromCart(ctx context.Context, productID uint, user string) {
	if user == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Cart = filterLineItems(s.state.Cart, productID)
	s.carts.Save(ctx, user, cloneLineItems(s.state.Cart))
}

func (s *localCartStore) RemoveFromWishlist(ctx context.Context, productID uint, user string) {
	if user == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Wishlist = filterWishlist(s.state.Wishlist, productID)
	s.wishlists.Save(ctx, user, cloneWishlist(s.state.Wishlist))
}

// MoveToCart adds a wishlisted product to the cart and drops it from the wishlist.
func (s *localCartStore) MoveToCart(ctx context.Context, productID uint, user string) (model.Product, error) {
	if user == "" {
		return model.Product{}, nil
	}

	s.mu.Lock()
	var product model.Product
	found := false
	for _, entry := range s.state.Wishlist {
		if entry.ID == productID {
			product = entry.Product
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return model.Product{}, ErrNotInWishlist
	}
	s.AddToCart(ctx, product, user)
	s.RemoveFromWishlist(ctx, productID, user)
	return product, nil
}

func (s *localCartStore) ClearCart(ctx context.Context, user string) {
	if user == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Cart = []model.LineItem{}
	s.carts.Save(ctx, user, []model.LineItem{})
}

func (s *localCartStore) LoadUserCart(ctx context.Context, user string) {
	if user == "" {
		return
	}
	cart := s.carts.Load(ctx, user)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Cart = cart
	s.state.CurrentUser = user

	logger.Debug("Loaded user cart", map[string]interface{}{
		"user":  user,
		"count": len(cart),
	})
}

func (s *localCartStore) LoadUserWishlist(ctx context.Context, user string) {
	if user == "" {
		return
	}
	wishlist := s.wishlists.Load(ctx, user)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Wishlist = wishlist
	s.state.CurrentUser = user
}

// Logout clears the in-memory cart and wishlist; persisted lists are kept.
func (s *localCartStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Cart = []model.LineItem{}
	s.state.Wishlist = []model.WishlistEntry{}
	s.state.CurrentUser = ""
}

func (s *localCartStore) SetProducts(products []model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Items = append([]model.Product{}, products...)
}

// AddProduct appends a locally created product with a time-based id.
func (s *localCartStore) AddProduct(product model.Product, now time.Time) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = uint(now.UnixMilli())
	created := now.UTC()
	product.CreatedAt = &created
	s.state.Items = append(s.state.Items, product)
	return product
}

// UpdateProduct merges the patch into the matching product and reports whether one matched.
func (s *localCartStore) UpdateProduct(patch model.ProductPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Items {
		if s.state.Items[i].ID == patch.ID {
			patch.Apply(&s.state.Items[i])
			return true
		}
	}
	return false
}

// DeleteProduct removes the product from the catalog and prunes it from cart and wishlist.
func (s *localCartStore) DeleteProduct(ctx context.Context, productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.state.Items[:0:0]
	for _, p := range s.state.Items {
		if p.ID != productID {
			items = append(items, p)
		}
	}
	s.state.Items = items

	cartBefore, wishlistBefore := len(s.state.Cart), len(s.state.Wishlist)
	s.state.Cart = filterLineItems(s.state.Cart, productID)
	s.state.Wishlist = filterWishlist(s.state.Wishlist, productID)

	user := s.state.CurrentUser
	if user == "" {
		return
	}
	if len(s.state.Cart) != cartBefore {
		s.carts.Save(ctx, user, cloneLineItems(s.state.Cart))
	}
	if len(s.state.Wishlist) != wishlistBefore {
		s.wishlists.Save(ctx, user, cloneWishlist(s.state.Wishlist))
	}
}

func (s *localCartStore) Snapshot() CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CartState{
		Items:       append([]model.Product{}, s.state.Items...),
		Cart:        cloneLineItems(s.state.Cart),
		Wishlist:    cloneWishlist(s.state.Wishlist),
		CurrentUser: s.state.CurrentUser,
	}
}

func (s *localCartStore) CartTotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cartSubtotal(s.state.Cart)
}

func cartSubtotal(items []model.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

func filterLineItems(items []model.LineItem, productID uint) []model.LineItem {
	out := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		if item.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

func filterWishlist(entries []model.WishlistEntry, productID uint) []model.WishlistEntry {
	out := make([]model.WishlistEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != productID {
			out = append(out, entry)
		}
	}
	return out
}

func cloneLineItems(items []model.LineItem) []model.LineItem {
	return append([]model.LineItem{}, items...)
}

func cloneWishlist(entries []model.WishlistEntry) []model.WishlistEntry {
	return append([]model.WishlistEntry{}, entries...)
}
